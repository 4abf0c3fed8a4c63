package diff

import (
	"bytes"
	"strings"
	"testing"

	"github.com/koba/db-dao/internal/schema"
	"github.com/koba/db-dao/internal/snapshot"
)

func column(name string, kind schema.TypeKind, constraints ...schema.ColumnConstraint) schema.ColumnDef {
	if constraints == nil {
		constraints = []schema.ColumnConstraint{}
	}
	return schema.ColumnDef{
		Name: schema.ColumnName{Name: name},
		Specification: schema.ColumnSpecification{
			SqlType:     schema.Type(kind),
			Constraints: constraints,
		},
	}
}

func table(name string, columns ...schema.ColumnDef) *schema.Table {
	return &schema.Table{Name: schema.TableName{Name: name}, Columns: columns}
}

func snap(tables ...*schema.Table) *snapshot.Snapshot {
	s := &snapshot.Snapshot{Tables: map[string]*schema.Table{}, Fingerprints: map[string]uint64{}}
	for _, t := range tables {
		s.Tables[t.Name.CompleteName()] = t
	}
	return s
}

func TestCompare(t *testing.T) {
	old := snap(
		table("actor", column("actor_id", schema.TypeInt, schema.NotNull()), column("nick", schema.TypeText)),
		table("legacy", column("id", schema.TypeInt)),
		table("same", column("id", schema.TypeInt)),
	)
	new := snap(
		table("actor",
			column("actor_id", schema.TypeBigint, schema.NotNull()),
			column("last_update", schema.TypeTimestamp, schema.DefaultValue(schema.CurrentTimestamp()))),
		table("film", column("film_id", schema.TypeInt)),
		table("same", column("id", schema.TypeInt)),
	)

	result := Compare(old, new)

	if len(result.SchemaDiffs) != 3 {
		t.Fatalf("got %d diffs: %+v", len(result.SchemaDiffs), result.SchemaDiffs)
	}
	if result.Unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", result.Unchanged)
	}

	wantTables := []struct {
		name   string
		action Action
	}{{"actor", ActionModify}, {"film", ActionAdd}, {"legacy", ActionDrop}}
	for i, w := range wantTables {
		if d := result.SchemaDiffs[i]; d.TableName != w.name || d.Action != w.action {
			t.Errorf("diff %d = %s %s, want %s %s", i, d.TableName, d.Action, w.name, w.action)
		}
	}

	changes := result.SchemaDiffs[0].ColumnChanges
	wantChanges := []struct {
		name   string
		action Action
	}{{"actor_id", ActionModify}, {"last_update", ActionAdd}, {"nick", ActionDrop}}
	if len(changes) != len(wantChanges) {
		t.Fatalf("column changes = %+v", changes)
	}
	for i, w := range wantChanges {
		if changes[i].Name != w.name || changes[i].Action != w.action {
			t.Errorf("change %d = %s %s, want %s %s", i, changes[i].Name, changes[i].Action, w.name, w.action)
		}
	}
	if changes[0].Old == nil || changes[0].New == nil || changes[2].New != nil {
		t.Errorf("unexpected change payloads: %+v", changes)
	}
}

func TestCompareSkipsEqualFingerprints(t *testing.T) {
	old := snap(table("actor", column("id", schema.TypeInt)))
	new := snap(table("actor", column("id", schema.TypeBigint)))
	old.Fingerprints["actor"] = 42
	new.Fingerprints["actor"] = 42

	result := Compare(old, new)
	if len(result.SchemaDiffs) != 0 || result.Unchanged != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestCompareIgnoresStats(t *testing.T) {
	a := column("id", schema.TypeInt)
	b := column("id", schema.TypeInt)
	b.Stat = &schema.ColumnStat{AvgWidth: 4}

	result := Compare(snap(table("t", a)), snap(table("t", b)))
	if len(result.SchemaDiffs) != 0 {
		t.Errorf("stats produced a diff: %+v", result.SchemaDiffs)
	}
}

func TestCompareIndexesAndForeignKeys(t *testing.T) {
	old := table("film", column("id", schema.TypeInt))
	old.Indexes = []schema.Index{{Name: "idx_a", Columns: []string{"a"}}}
	new := table("film", column("id", schema.TypeInt))
	new.Indexes = []schema.Index{{Name: "idx_a", Columns: []string{"a", "b"}}}
	new.ForeignKeys = []schema.ForeignKey{{Name: "fk_lang", Column: "language_id", ReferencedTable: "language", ReferencedColumn: "language_id"}}

	result := Compare(snap(old), snap(new))
	if len(result.SchemaDiffs) != 1 {
		t.Fatalf("diffs = %+v", result.SchemaDiffs)
	}
	d := result.SchemaDiffs[0]
	if len(d.IndexChanges) != 1 || d.IndexChanges[0].Action != ActionModify {
		t.Errorf("index changes = %+v", d.IndexChanges)
	}
	if len(d.ForeignKeyChanges) != 1 || d.ForeignKeyChanges[0].Action != ActionAdd {
		t.Errorf("foreign key changes = %+v", d.ForeignKeyChanges)
	}
}

func TestDisplay(t *testing.T) {
	var buf bytes.Buffer
	Display(&buf, &DiffResult{})
	if !strings.Contains(buf.String(), "No differences found.") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	result := Compare(
		snap(table("actor", column("id", schema.TypeInt))),
		snap(table("actor", column("id", schema.TypeInt), column("name", schema.TypeText))),
	)
	Display(&buf, result)
	for _, want := range []string{"Table: actor", "Action: MODIFY", "- name: ADD"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output %q lacks %q", buf.String(), want)
		}
	}
}
