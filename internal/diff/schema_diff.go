package diff

import (
	"slices"

	"github.com/koba/db-dao/internal/schema"
)

// Action represents the type of change
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDrop   Action = "DROP"
	ActionModify Action = "MODIFY"
)

// SchemaDiff represents schema differences for a table
type SchemaDiff struct {
	TableName         string
	Action            Action
	OldTable          *schema.Table
	NewTable          *schema.Table
	ColumnChanges     []ColumnChange
	IndexChanges      []IndexChange
	ForeignKeyChanges []ForeignKeyChange
}

// Change is an added, dropped or modified named item. Old is nil for ADD
// and New is nil for DROP.
type Change[T any] struct {
	Name   string
	Action Action
	Old    *T
	New    *T
}

type (
	ColumnChange     = Change[schema.ColumnDef]
	IndexChange      = Change[schema.Index]
	ForeignKeyChange = Change[schema.ForeignKey]
)

// compareTables compares two definitions of the same table; nil means no change.
func compareTables(old, new *schema.Table) *SchemaDiff {
	diff := &SchemaDiff{
		TableName: new.Name.CompleteName(),
		Action:    ActionModify,
		OldTable:  old,
		NewTable:  new,
		ColumnChanges: compareNamed(old.Columns, new.Columns,
			func(c schema.ColumnDef) string { return c.Name.Name },
			schema.ColumnDef.Equal),
		IndexChanges: compareNamed(old.Indexes, new.Indexes,
			func(i schema.Index) string { return i.Name },
			indexesEqual),
		ForeignKeyChanges: compareNamed(old.ForeignKeys, new.ForeignKeys,
			func(fk schema.ForeignKey) string { return fk.Name },
			func(a, b schema.ForeignKey) bool { return a == b }),
	}

	// Return nil if no changes
	if len(diff.ColumnChanges) == 0 && len(diff.IndexChanges) == 0 && len(diff.ForeignKeyChanges) == 0 {
		return nil
	}

	return diff
}

// compareNamed matches items by name. Added and modified items come in the
// new order, dropped ones follow in the old order.
func compareNamed[T any](old, new []T, name func(T) string, equal func(a, b T) bool) []Change[T] {
	oldByName := make(map[string]*T, len(old))
	for i := range old {
		oldByName[name(old[i])] = &old[i]
	}
	newByName := make(map[string]*T, len(new))
	for i := range new {
		newByName[name(new[i])] = &new[i]
	}

	changes := []Change[T]{}
	for i := range new {
		n := name(new[i])
		oldItem, exists := oldByName[n]
		switch {
		case !exists:
			changes = append(changes, Change[T]{Name: n, Action: ActionAdd, New: &new[i]})
		case !equal(*oldItem, new[i]):
			changes = append(changes, Change[T]{Name: n, Action: ActionModify, Old: oldItem, New: &new[i]})
		}
	}
	for i := range old {
		n := name(old[i])
		if _, exists := newByName[n]; !exists {
			changes = append(changes, Change[T]{Name: n, Action: ActionDrop, Old: &old[i]})
		}
	}
	return changes
}

func indexesEqual(a, b schema.Index) bool {
	return a.Name == b.Name &&
		a.Unique == b.Unique &&
		a.Primary == b.Primary &&
		slices.Equal(a.Columns, b.Columns)
}
