// Package entity builds SELECT and INSERT statements from record mappings,
// runs them through a database executor and maps the rows back to records.
package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/schema"
	"github.com/koba/db-dao/internal/value"
)

var (
	// ErrZeroRecordReturned is returned by ExecuteSQLWithOneReturn when the query yields no rows.
	ErrZeroRecordReturned = errors.New("zero record returned")
	// ErrMoreThanOneRecordReturned is returned by ExecuteSQLWithOneReturn when the query yields several rows.
	ErrMoreThanOneRecordReturned = errors.New("more than one record returned")
)

// Reader is the half of the mapping contract used to read rows into T.
type Reader[T any] interface {
	ColumnNames() []schema.ColumnName
	FromDao(d *dao.Dao) (T, error)
}

// Writer is the half of the mapping contract used to write T into a table.
type Writer[T any] interface {
	TableName() schema.TableName
	ColumnNames() []schema.ColumnName
	ToDao(rec *T) *dao.Dao
}

// Source is a Reader that also names its table, as GetAll needs.
type Source[T any] interface {
	Reader[T]
	TableName() schema.TableName
}

// EntityManager runs record-level operations against one executor
type EntityManager struct {
	db database.Executor
}

func New(db database.Executor) *EntityManager {
	return &EntityManager{db: db}
}

// ExecuteSQL runs sql and returns the raw rows.
func (em *EntityManager) ExecuteSQL(ctx context.Context, sql string, params ...any) ([]*dao.Dao, error) {
	values := make([]value.Value, len(params))
	for i, p := range params {
		v, err := value.From(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		values[i] = v
	}
	return em.db.ExecuteSQLWithReturn(ctx, sql, values)
}

// SelectAllSQL renders SELECT <columns> FROM <table>.
func SelectAllSQL(table schema.TableName, columns []schema.ColumnName) string {
	return fmt.Sprintf("SELECT %s FROM %s", schema.JoinColumnNames(columns), table.CompleteName())
}

// InsertSQL renders a batched INSERT of rows rows with $n placeholders
// numbered row*len(columns)+column+1 across the batch, followed by RETURNING.
func InsertSQL(table schema.TableName, columns []schema.ColumnName, rows int, returning []schema.ColumnName) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s)\n", table.CompleteName(), schema.JoinColumnNames(columns))
	sb.WriteString("VALUES ")
	for y := 0; y < rows; y++ {
		if y > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("\n\t(")
		for x := range columns {
			if x > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", y*len(columns)+x+1)
		}
		sb.WriteString(")")
	}
	fmt.Fprintf(&sb, "\nRETURNING %s", schema.JoinColumnNames(returning))
	return sb.String()
}

// GetAll returns every record of T's table in cursor order.
func GetAll[T any](ctx context.Context, em *EntityManager, m Source[T]) ([]T, error) {
	sql := SelectAllSQL(m.TableName(), m.ColumnNames())
	rows, err := em.db.ExecuteSQLWithReturn(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, m)
}

// Insert writes entities in a single statement and maps the RETURNING rows
// into R, which may expose other columns than T (server generated ids,
// timestamps). Columns missing from an entity's Dao are bound as NULL.
//
// Result order follows the order the database emits RETURNING rows in,
// which PostgreSQL produces per VALUES row; it is not verified here.
func Insert[T, R any](ctx context.Context, em *EntityManager, in Writer[T], out Reader[R], entities []*T) ([]R, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	columns := in.ColumnNames()
	sql := InsertSQL(in.TableName(), columns, len(entities), out.ColumnNames())

	values := make([]value.Value, 0, len(entities)*len(columns))
	for _, entity := range entities {
		d := in.ToDao(entity)
		for _, col := range columns {
			v, ok := d.Remove(col.Name)
			if !ok {
				v = value.Nil{}
			}
			values = append(values, v)
		}
	}

	slog.DebugContext(ctx, "insert entities", "table", in.TableName().CompleteName(), "rows", len(entities))
	rows, err := em.db.ExecuteSQLWithReturn(ctx, sql, values)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, out)
}

// ExecuteSQLWithReturn runs sql with positional parameters and maps every row into R.
func ExecuteSQLWithReturn[R any](ctx context.Context, em *EntityManager, m Reader[R], sql string, params ...any) ([]R, error) {
	rows, err := em.ExecuteSQL(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, m)
}

// ExecuteSQLWithOneReturn is ExecuteSQLWithReturn for queries that must
// produce exactly one row.
func ExecuteSQLWithOneReturn[R any](ctx context.Context, em *EntityManager, m Reader[R], sql string, params ...any) (R, error) {
	var zero R
	records, err := ExecuteSQLWithReturn(ctx, em, m, sql, params...)
	if err != nil {
		return zero, err
	}
	switch len(records) {
	case 0:
		return zero, ErrZeroRecordReturned
	case 1:
		return records[0], nil
	default:
		return zero, ErrMoreThanOneRecordReturned
	}
}

func mapRows[T any](rows []*dao.Dao, m Reader[T]) ([]T, error) {
	records := make([]T, 0, len(rows))
	for i, row := range rows {
		rec, err := m.FromDao(row)
		if err != nil {
			return nil, fmt.Errorf("failed to map row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
