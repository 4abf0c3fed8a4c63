// Package diff compares two schema snapshots.
package diff

import (
	"fmt"
	"io"
	"slices"

	"github.com/koba/db-dao/internal/snapshot"
)

// DiffResult holds the complete comparison result
type DiffResult struct {
	// SchemaDiffs is ordered by table name.
	SchemaDiffs []*SchemaDiff
	// Unchanged counts tables skipped because their fingerprints matched.
	Unchanged int
}

// Compare compares two snapshots and returns the differences
func Compare(snap1, snap2 *snapshot.Snapshot) *DiffResult {
	result := &DiffResult{SchemaDiffs: []*SchemaDiff{}}

	// Find all unique table names
	var tableNames []string
	for name := range snap1.Tables {
		tableNames = append(tableNames, name)
	}
	for name := range snap2.Tables {
		if _, ok := snap1.Tables[name]; !ok {
			tableNames = append(tableNames, name)
		}
	}
	slices.Sort(tableNames)

	for _, tableName := range tableNames {
		table1, exists1 := snap1.Tables[tableName]
		table2, exists2 := snap2.Tables[tableName]

		switch {
		case !exists1:
			result.SchemaDiffs = append(result.SchemaDiffs, &SchemaDiff{
				TableName: tableName,
				Action:    ActionAdd,
				NewTable:  table2,
			})
		case !exists2:
			result.SchemaDiffs = append(result.SchemaDiffs, &SchemaDiff{
				TableName: tableName,
				Action:    ActionDrop,
				OldTable:  table1,
			})
		case sameFingerprint(snap1, snap2, tableName):
			result.Unchanged++
		default:
			if d := compareTables(table1, table2); d != nil {
				result.SchemaDiffs = append(result.SchemaDiffs, d)
			} else {
				result.Unchanged++
			}
		}
	}

	return result
}

func sameFingerprint(snap1, snap2 *snapshot.Snapshot, table string) bool {
	f1, ok1 := snap1.Fingerprints[table]
	f2, ok2 := snap2.Fingerprints[table]
	return ok1 && ok2 && f1 == f2
}

// Display prints the diff result in a human-readable format
func Display(w io.Writer, result *DiffResult) {
	if len(result.SchemaDiffs) == 0 {
		fmt.Fprintln(w, "No differences found.")
		return
	}

	fmt.Fprintln(w, "=== Schema Differences ===")
	fmt.Fprintln(w)
	for _, schemaDiff := range result.SchemaDiffs {
		displaySchemaDiff(w, schemaDiff)
	}
}

func displaySchemaDiff(w io.Writer, diff *SchemaDiff) {
	fmt.Fprintf(w, "Table: %s\n", diff.TableName)

	switch diff.Action {
	case ActionAdd:
		fmt.Fprintf(w, "  Action: ADD (new table)\n")
		fmt.Fprintf(w, "  Columns: %d\n", len(diff.NewTable.Columns))
	case ActionDrop:
		fmt.Fprintf(w, "  Action: DROP (removed table)\n")
	case ActionModify:
		fmt.Fprintf(w, "  Action: MODIFY\n")
		if len(diff.ColumnChanges) > 0 {
			fmt.Fprintf(w, "  Column changes:\n")
			for _, change := range diff.ColumnChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.Name, change.Action)
			}
		}
		if len(diff.IndexChanges) > 0 {
			fmt.Fprintf(w, "  Index changes:\n")
			for _, change := range diff.IndexChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.Name, change.Action)
			}
		}
		if len(diff.ForeignKeyChanges) > 0 {
			fmt.Fprintf(w, "  Foreign key changes:\n")
			for _, change := range diff.ForeignKeyChanges {
				fmt.Fprintf(w, "    - %s: %s\n", change.Name, change.Action)
			}
		}
	}
	fmt.Fprintln(w)
}
