package introspect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/entity"
	"github.com/koba/db-dao/internal/schema"
)

type mysqlColumn struct {
	Name       string
	ColumnType string
	IsNullable string
	Default    *string
	Extra      string
	Comment    string
}

var mysqlColumnMapping = dao.MustMapping("",
	dao.Field("column_name", func(c *mysqlColumn) *string { return &c.Name }),
	dao.Field("column_type", func(c *mysqlColumn) *string { return &c.ColumnType }),
	dao.Field("is_nullable", func(c *mysqlColumn) *string { return &c.IsNullable }),
	dao.Field("column_default", func(c *mysqlColumn) **string { return &c.Default }),
	dao.Field("extra", func(c *mysqlColumn) *string { return &c.Extra }),
	dao.Field("column_comment", func(c *mysqlColumn) *string { return &c.Comment }),
)

type mysqlCardinality struct {
	Cardinality *int64
}

var mysqlCardinalityMapping = dao.MustMapping("",
	dao.Field("cardinality", func(c *mysqlCardinality) **int64 { return &c.Cardinality }),
)

const mysqlTablesSQL = `SELECT TABLE_SCHEMA AS ` + "`schema`" + `, TABLE_NAME AS name
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = $1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

const mysqlTableCommentSQL = `SELECT NULLIF(TABLE_COMMENT, '') AS comment
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = $2 AND TABLE_NAME = $1`

const mysqlColumnsSQL = `
		SELECT
			COLUMN_NAME AS column_name,
			COLUMN_TYPE AS column_type,
			IS_NULLABLE AS is_nullable,
			COLUMN_DEFAULT AS column_default,
			EXTRA AS extra,
			COLUMN_COMMENT AS column_comment
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = $2 AND TABLE_NAME = $1
		ORDER BY ORDINAL_POSITION`

const mysqlCardinalitySQL = `
		SELECT MAX(CARDINALITY) AS cardinality
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = $3 AND TABLE_NAME = $2 AND COLUMN_NAME = $1`

const mysqlIndexesSQL = `
		SELECT
			INDEX_NAME AS index_name,
			COLUMN_NAME AS column_name,
			NON_UNIQUE = 0 AS is_unique,
			INDEX_NAME = 'PRIMARY' AS is_primary,
			INDEX_TYPE AS index_type
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = $2 AND TABLE_NAME = $1
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

const mysqlForeignKeysSQL = `
		SELECT
			kcu.CONSTRAINT_NAME AS name,
			kcu.COLUMN_NAME AS column_name,
			kcu.REFERENCED_TABLE_NAME AS referenced_table,
			kcu.REFERENCED_COLUMN_NAME AS referenced_column,
			rc.UPDATE_RULE AS on_update,
			rc.DELETE_RULE AS on_delete
		FROM information_schema.KEY_COLUMN_USAGE kcu
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_SCHEMA = kcu.TABLE_SCHEMA
			AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		WHERE kcu.TABLE_SCHEMA = $2 AND kcu.TABLE_NAME = $1
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

// MySQL introspects a MySQL or MariaDB catalog through information_schema
type MySQL struct {
	em            *entity.EntityManager
	types         *TypeRegistry
	defaultSchema string
}

// NewMySQL creates a MySQL introspector; defaultSchema is the database name.
func NewMySQL(em *entity.EntityManager, defaultSchema string) *MySQL {
	return &MySQL{em: em, types: DefaultTypeRegistry(), defaultSchema: defaultSchema}
}

func (m *MySQL) Types() *TypeRegistry {
	return m.types
}

// GetAllTables lists the base tables of the database
func (m *MySQL) GetAllTables(ctx context.Context) ([]schema.TableName, error) {
	tables, err := entity.ExecuteSQLWithReturn(ctx, m.em, tableNameMapping, mysqlTablesSQL, m.defaultSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

// GetTable reads columns, comment, indexes and foreign keys of a table
func (m *MySQL) GetTable(ctx context.Context, table schema.TableName) (*schema.Table, error) {
	schemaName := table.SchemaOr(m.defaultSchema)

	comment, err := entity.ExecuteSQLWithOneReturn(ctx, m.em, commentMapping, mysqlTableCommentSQL, table.Name, schemaName)
	if errors.Is(err, entity.ErrZeroRecordReturned) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table.CompleteName())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table comment: %w", err)
	}

	columns, err := m.GetColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	indexRows, err := entity.ExecuteSQLWithReturn(ctx, m.em, indexRowMapping, mysqlIndexesSQL, table.Name, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}

	foreignKeys, err := entity.ExecuteSQLWithReturn(ctx, m.em, foreignKeyMapping, mysqlForeignKeysSQL, table.Name, schemaName)
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

// GetColumns returns the columns of table in ordinal order
func (m *MySQL) GetColumns(ctx context.Context, table schema.TableName) ([]schema.ColumnDef, error) {
	schemaName := table.SchemaOr(m.defaultSchema)
	rows, err := entity.ExecuteSQLWithReturn(ctx, m.em, mysqlColumnMapping, mysqlColumnsSQL, table.Name, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columns := make([]schema.ColumnDef, 0, len(rows))
	for _, row := range rows {
		spec, err := m.columnSpecification(row)
		if err != nil {
			return nil, &CatalogShapeError{Table: table.CompleteName(), Column: row.Name, Err: err}
		}

		stat, err := m.getColumnStat(ctx, table, row.Name)
		if err != nil {
			return nil, err
		}

		var comment *string
		if row.Comment != "" {
			comment = &row.Comment
		}
		columns = append(columns, schema.ColumnDef{
			Table:         table,
			Name:          schema.ColumnName{Name: row.Name},
			Comment:       comment,
			Specification: spec,
			Stat:          stat,
		})
	}
	return columns, nil
}

func (m *MySQL) columnSpecification(row mysqlColumn) (schema.ColumnSpecification, error) {
	sqlType, capacity, err := m.sqlTypeCapacity(row.ColumnType)
	if err != nil {
		return schema.ColumnSpecification{}, err
	}

	notNull := row.IsNullable == "NO"
	var constraints []schema.ColumnConstraint
	if strings.Contains(strings.ToLower(row.Extra), "auto_increment") {
		constraints = []schema.ColumnConstraint{}
		if notNull {
			constraints = append(constraints, schema.NotNull())
		}
		constraints = append(constraints, schema.AutoIncrement(""))
	} else {
		constraints, err = columnConstraints(sqlType, notNull, mysqlDefault(sqlType, row.Default))
		if err != nil {
			return schema.ColumnSpecification{}, err
		}
	}

	return schema.ColumnSpecification{
		SqlType:     sqlType,
		Capacity:    capacity,
		Constraints: constraints,
	}, nil
}

func (m *MySQL) sqlTypeCapacity(columnType string) (schema.SqlType, *schema.Capacity, error) {
	if choices, ok := parseMySQLEnum(columnType); ok {
		return schema.Enum("enum", choices), nil, nil
	}
	return m.types.Resolve(columnType)
}

func (m *MySQL) getColumnStat(ctx context.Context, table schema.TableName, column string) (*schema.ColumnStat, error) {
	row, err := entity.ExecuteSQLWithOneReturn(ctx, m.em, mysqlCardinalityMapping, mysqlCardinalitySQL,
		column, table.Name, table.SchemaOr(m.defaultSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics of %s.%s: %w", table.CompleteName(), column, err)
	}
	if row.Cardinality == nil {
		return nil, nil
	}
	return &schema.ColumnStat{NDistinct: float32(*row.Cardinality)}, nil
}

// parseMySQLEnum reads the labels out of enum('a','b').
func parseMySQLEnum(columnType string) ([]string, bool) {
	lower := strings.ToLower(columnType)
	if !strings.HasPrefix(lower, "enum(") || !strings.HasSuffix(lower, ")") {
		return nil, false
	}
	body := columnType[len("enum(") : len(columnType)-1]
	choices := []string{}
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		item = strings.TrimPrefix(item, "'")
		item = strings.TrimSuffix(item, "'")
		choices = append(choices, strings.ReplaceAll(item, "''", "'"))
	}
	return choices, true
}

// mysqlDefault brings MySQL's COLUMN_DEFAULT into the shape the default
// parser reads. MySQL 8 reports string defaults unquoted and bit defaults
// as b'1'.
func mysqlDefault(t schema.SqlType, def *string) *string {
	if def == nil {
		return nil
	}
	v := *def
	switch {
	case t.Kind == schema.TypeBool:
		v = strings.TrimSuffix(strings.TrimPrefix(v, "b'"), "'")
	case t.IsTextual() || t.Kind == schema.TypeEnum:
		if !strings.HasPrefix(v, "'") && !strings.EqualFold(v, "null") {
			v = "'" + v + "'"
		}
	}
	return &v
}
