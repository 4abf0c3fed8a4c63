package introspect

import (
	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/schema"
)

// Catalog rows shared by the PostgreSQL and MySQL introspectors.

var tableNameMapping = dao.MustMapping("",
	dao.Field("schema", func(t *schema.TableName) *string { return &t.Schema }),
	dao.Field("name", func(t *schema.TableName) *string { return &t.Name }),
)

type tableComment struct {
	Comment *string
}

var commentMapping = dao.MustMapping("",
	dao.Field("comment", func(c *tableComment) **string { return &c.Comment }),
)

// one row per indexed column
type indexRow struct {
	IndexName  string
	ColumnName string
	IsUnique   bool
	IsPrimary  bool
	IndexType  string
}

var indexRowMapping = dao.MustMapping("",
	dao.Field("index_name", func(r *indexRow) *string { return &r.IndexName }),
	dao.Field("column_name", func(r *indexRow) *string { return &r.ColumnName }),
	dao.Field("is_unique", func(r *indexRow) *bool { return &r.IsUnique }),
	dao.Field("is_primary", func(r *indexRow) *bool { return &r.IsPrimary }),
	dao.Field("index_type", func(r *indexRow) *string { return &r.IndexType }),
)

var foreignKeyMapping = dao.MustMapping("",
	dao.Field("name", func(fk *schema.ForeignKey) *string { return &fk.Name }),
	dao.Field("column_name", func(fk *schema.ForeignKey) *string { return &fk.Column }),
	dao.Field("referenced_table", func(fk *schema.ForeignKey) *string { return &fk.ReferencedTable }),
	dao.Field("referenced_column", func(fk *schema.ForeignKey) *string { return &fk.ReferencedColumn }),
	dao.Field("on_update", func(fk *schema.ForeignKey) *string { return &fk.OnUpdate }),
	dao.Field("on_delete", func(fk *schema.ForeignKey) *string { return &fk.OnDelete }),
)

// groupIndexes folds per-column rows into indexes, keeping the order in
// which index names first appear.
func groupIndexes(rows []indexRow) []schema.Index {
	indexes := []schema.Index{}
	position := make(map[string]int)
	for _, row := range rows {
		i, ok := position[row.IndexName]
		if !ok {
			i = len(indexes)
			position[row.IndexName] = i
			indexes = append(indexes, schema.Index{
				Name:    row.IndexName,
				Unique:  row.IsUnique,
				Primary: row.IsPrimary,
				Type:    row.IndexType,
			})
		}
		indexes[i].Columns = append(indexes[i].Columns, row.ColumnName)
	}
	return indexes
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
