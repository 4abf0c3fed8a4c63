package introspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/entity"
	"github.com/koba/db-dao/internal/schema"
)

// column name and comment
type columnSimple struct {
	Name    string
	Comment *string
}

var columnSimpleMapping = dao.MustMapping("",
	dao.Field("name", func(c *columnSimple) *string { return &c.Name }),
	dao.Field("comment", func(c *columnSimple) **string { return &c.Comment }),
)

func (c columnSimple) toColumn(table schema.TableName, spec schema.ColumnSpecification, stat *schema.ColumnStat) schema.ColumnDef {
	return schema.ColumnDef{
		Table:         table,
		Name:          schema.ColumnName{Name: c.Name},
		Comment:       c.Comment,
		Specification: spec,
		Stat:          stat,
	}
}

// null, datatype, default value and enum labels of one column
type columnConstraintSimple struct {
	NotNull          bool
	DataType         string
	Default          *string
	IsEnum           bool
	IsArrayEnum      bool
	EnumChoices      []string
	ArrayEnumChoices []string
}

var columnConstraintMapping = dao.MustMapping("",
	dao.Field("not_null", func(c *columnConstraintSimple) *bool { return &c.NotNull }),
	dao.Field("data_type", func(c *columnConstraintSimple) *string { return &c.DataType }),
	dao.Field("default", func(c *columnConstraintSimple) **string { return &c.Default }),
	dao.Field("is_enum", func(c *columnConstraintSimple) *bool { return &c.IsEnum }),
	dao.Field("is_array_enum", func(c *columnConstraintSimple) *bool { return &c.IsArrayEnum }),
	dao.Field("enum_choices", func(c *columnConstraintSimple) *[]string { return &c.EnumChoices }),
	dao.Field("array_enum_choices", func(c *columnConstraintSimple) *[]string { return &c.ArrayEnumChoices }),
)

type columnStatRow struct {
	AvgWidth  *int32
	NDistinct *float32
}

var columnStatMapping = dao.MustMapping("",
	dao.Field("avg_width", func(c *columnStatRow) **int32 { return &c.AvgWidth }),
	dao.Field("n_distinct", func(c *columnStatRow) **float32 { return &c.NDistinct }),
)

func (r columnStatRow) toStat() *schema.ColumnStat {
	if r.AvgWidth == nil && r.NDistinct == nil {
		return nil
	}
	stat := &schema.ColumnStat{}
	if r.AvgWidth != nil {
		stat.AvgWidth = *r.AvgWidth
	}
	if r.NDistinct != nil {
		stat.NDistinct = *r.NDistinct
	}
	return stat
}

const pgColumnsSQL = `SELECT
                 pg_attribute.attnum AS number,
                 pg_attribute.attname AS name,
                 pg_description.description AS comment
            FROM pg_attribute
       LEFT JOIN pg_class
              ON pg_class.oid = pg_attribute.attrelid
       LEFT JOIN pg_namespace
              ON pg_namespace.oid = pg_class.relnamespace
       LEFT JOIN pg_description
              ON pg_description.objoid = pg_class.oid
             AND pg_description.objsubid = pg_attribute.attnum
           WHERE
                 pg_class.relname = $1
             AND pg_namespace.nspname = $2
             AND pg_attribute.attnum > 0
             AND pg_attribute.attisdropped = false
             AND has_column_privilege($3, attname, 'SELECT')
        ORDER BY number
`

// pg_attrdef.adsrc is gone since PostgreSQL 12, pg_get_expr replaces it.
const pgColumnSpecificationSQL = `SELECT DISTINCT
               pg_attribute.attnotnull AS not_null,
               pg_catalog.format_type(pg_attribute.atttypid, pg_attribute.atttypmod) AS data_type,
               pg_get_expr(pg_attrdef.adbin, pg_attrdef.adrelid) AS default,
               pg_type.typtype = 'e'::character AS is_enum,
               pg_type.typcategory = 'A'::character AS is_array_enum,
               ARRAY(SELECT enumlabel FROM pg_enum
                        WHERE pg_enum.enumtypid = pg_attribute.atttypid
                        ORDER BY pg_enum.enumsortorder)
               AS enum_choices,
               ARRAY(SELECT enumlabel FROM pg_enum
                        WHERE pg_enum.enumtypid = pg_type.typelem
                        ORDER BY pg_enum.enumsortorder)
               AS array_enum_choices
          FROM pg_attribute
     LEFT JOIN pg_class
            ON pg_class.oid = pg_attribute.attrelid
     LEFT JOIN pg_type
            ON pg_type.oid = pg_attribute.atttypid
     LEFT JOIN pg_attrdef
            ON pg_attrdef.adrelid = pg_class.oid
           AND pg_attrdef.adnum = pg_attribute.attnum
     LEFT JOIN pg_namespace
            ON pg_namespace.oid = pg_class.relnamespace
         WHERE
               pg_attribute.attname = $1
           AND pg_class.relname = $2
           AND pg_namespace.nspname = $3
           AND pg_attribute.attisdropped = false
`

const pgColumnStatSQL = `SELECT avg_width,
                n_distinct
            FROM pg_stats
           WHERE
                pg_stats.schemaname = $3
            AND pg_stats.tablename = $2
            AND pg_stats.attname = $1
`

const pgTablesSQL = `SELECT table_schema AS schema,
                table_name AS name
           FROM information_schema.tables
          WHERE table_schema = $1 AND table_type = 'BASE TABLE'
       ORDER BY table_name
`

const pgTableCommentSQL = `SELECT obj_description(pg_class.oid, 'pg_class') AS comment
           FROM pg_class
           JOIN pg_namespace ON pg_namespace.oid = pg_class.relnamespace
          WHERE pg_class.relname = $1
            AND pg_namespace.nspname = $2
            AND pg_class.relkind IN ('r', 'p')
`

const pgIndexesSQL = `SELECT
			i.relname AS index_name,
			a.attname AS column_name,
			ix.indisunique AS is_unique,
			ix.indisprimary AS is_primary,
			am.amname AS index_type
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1 AND n.nspname = $2 AND t.relkind = 'r'
		ORDER BY i.relname, a.attnum
`

const pgForeignKeysSQL = `SELECT
			tc.constraint_name AS name,
			kcu.column_name AS column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column,
			rc.update_rule AS on_update,
			rc.delete_rule AS on_delete
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_name = $1
			AND tc.table_schema = $2
		ORDER BY tc.constraint_name
`

// Postgres introspects a PostgreSQL catalog
type Postgres struct {
	em            *entity.EntityManager
	types         *TypeRegistry
	defaultSchema string
}

// NewPostgres creates a PostgreSQL introspector using the default type registry
func NewPostgres(em *entity.EntityManager, defaultSchema string) *Postgres {
	return &Postgres{em: em, types: DefaultTypeRegistry(), defaultSchema: defaultSchema}
}

// Types returns the registry used to resolve native type names, so callers
// can register extension types.
func (p *Postgres) Types() *TypeRegistry {
	return p.types
}

// GetAllTables lists the base tables of the default schema
func (p *Postgres) GetAllTables(ctx context.Context) ([]schema.TableName, error) {
	tables, err := entity.ExecuteSQLWithReturn(ctx, p.em, tableNameMapping, pgTablesSQL, p.defaultSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

// GetTable reads columns, comment, indexes and foreign keys of a table
func (p *Postgres) GetTable(ctx context.Context, table schema.TableName) (*schema.Table, error) {
	schemaName := table.SchemaOr(p.defaultSchema)

	comment, err := entity.ExecuteSQLWithOneReturn(ctx, p.em, commentMapping, pgTableCommentSQL, table.Name, schemaName)
	if errors.Is(err, entity.ErrZeroRecordReturned) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table.CompleteName())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table comment: %w", err)
	}

	columns, err := p.GetColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	indexRows, err := entity.ExecuteSQLWithReturn(ctx, p.em, indexRowMapping, pgIndexesSQL, table.Name, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}

	foreignKeys, err := entity.ExecuteSQLWithReturn(ctx, p.em, foreignKeyMapping, pgForeignKeysSQL, table.Name, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}

	return &schema.Table{
		Name:        table,
		Comment:     comment.Comment,
		Columns:     columns,
		Indexes:     groupIndexes(indexRows),
		ForeignKeys: nonNil(foreignKeys),
	}, nil
}

// GetColumns returns the columns of table in their native order
func (p *Postgres) GetColumns(ctx context.Context, table schema.TableName) ([]schema.ColumnDef, error) {
	schemaName := table.SchemaOr(p.defaultSchema)
	// has_column_privilege resolves an unqualified name through search_path
	qualified := pq.QuoteIdentifier(schemaName) + "." + pq.QuoteIdentifier(table.Name)
	columnsSimple, err := entity.ExecuteSQLWithReturn(ctx, p.em, columnSimpleMapping, pgColumnsSQL,
		table.Name, schemaName, qualified)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columns := make([]schema.ColumnDef, 0, len(columnsSimple))
	for _, column := range columnsSimple {
		spec, err := p.getColumnSpecification(ctx, table, column.Name)
		if err != nil {
			return nil, err
		}
		stat, err := p.getColumnStat(ctx, table, column.Name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column.toColumn(table, spec, stat))
	}
	return columns, nil
}

func (p *Postgres) getColumnSpecification(ctx context.Context, table schema.TableName, column string) (schema.ColumnSpecification, error) {
	rows, err := entity.ExecuteSQLWithReturn(ctx, p.em, columnConstraintMapping, pgColumnSpecificationSQL,
		column, table.Name, table.SchemaOr(p.defaultSchema))
	if err != nil {
		return schema.ColumnSpecification{}, fmt.Errorf("failed to get specification of %s.%s: %w", table.CompleteName(), column, err)
	}
	if len(rows) != 1 {
		return schema.ColumnSpecification{}, fmt.Errorf("%w: %d specification rows for %s.%s",
			ErrCatalogInvariant, len(rows), table.CompleteName(), column)
	}

	c := rows[0]
	sqlType, capacity, err := p.sqlTypeCapacity(c)
	if err != nil {
		return schema.ColumnSpecification{}, &CatalogShapeError{Table: table.CompleteName(), Column: column, Err: err}
	}
	constraints, err := columnConstraints(sqlType, c.NotNull, c.Default)
	if err != nil {
		return schema.ColumnSpecification{}, &CatalogShapeError{Table: table.CompleteName(), Column: column, Err: err}
	}
	return schema.ColumnSpecification{
		SqlType:     sqlType,
		Capacity:    capacity,
		Constraints: constraints,
	}, nil
}

func (p *Postgres) sqlTypeCapacity(c columnConstraintSimple) (schema.SqlType, *schema.Capacity, error) {
	switch {
	case c.IsEnum:
		slog.Debug("enum column", "type", c.DataType, "choices", c.EnumChoices)
		return schema.Enum(c.DataType, c.EnumChoices), nil, nil
	case c.IsArrayEnum && len(c.ArrayEnumChoices) > 0:
		name := trimArraySuffix(c.DataType)
		return schema.ArrayOf(schema.Enum(name, c.ArrayEnumChoices)), nil, nil
	}
	return p.types.Resolve(c.DataType)
}

// getColumnStat reads planner statistics; a column never analyzed has none.
func (p *Postgres) getColumnStat(ctx context.Context, table schema.TableName, column string) (*schema.ColumnStat, error) {
	rows, err := entity.ExecuteSQLWithReturn(ctx, p.em, columnStatMapping, pgColumnStatSQL,
		column, table.Name, table.SchemaOr(p.defaultSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics of %s.%s: %w", table.CompleteName(), column, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toStat(), nil
}

// columnConstraints resolves NotNull, AutoIncrement and DefaultValue, in that order.
func columnConstraints(sqlType schema.SqlType, notNull bool, def *string) ([]schema.ColumnConstraint, error) {
	constraints := []schema.ColumnConstraint{}
	if notNull {
		constraints = append(constraints, schema.NotNull())
	}
	if def == nil {
		return constraints, nil
	}
	if seq, ok := AutoIncrementSequence(*def); ok {
		return append(constraints, schema.AutoIncrement(seq)), nil
	}
	literal, err := ParseDefault(sqlType, *def)
	if err != nil {
		return nil, err
	}
	return append(constraints, schema.DefaultValue(literal)), nil
}

func trimArraySuffix(dataType string) string {
	for len(dataType) > 2 && dataType[len(dataType)-2:] == "[]" {
		dataType = dataType[:len(dataType)-2]
	}
	return dataType
}
