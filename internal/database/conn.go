package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/value"
)

// sqlConn is the database/sql plumbing shared by every backend
type sqlConn struct {
	db      *sql.DB
	dialect Dialect
}

func (c *sqlConn) open(ctx context.Context, driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", c.dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping %s: %w", c.dialect, err)
	}

	c.db = db
	return nil
}

// Close closes the connection pool
func (c *sqlConn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *sqlConn) Dialect() Dialect {
	return c.dialect
}

// DB exposes the underlying pool, e.g. for schema setup outside the Executor contract.
func (c *sqlConn) DB() *sql.DB {
	return c.db
}

// ExecuteSQLWithReturn runs query and converts every returned row into a Dao
func (c *sqlConn) ExecuteSQLWithReturn(ctx context.Context, query string, params []value.Value) ([]*dao.Dao, error) {
	if c.db == nil {
		return nil, ErrNotConnected
	}

	query, params, err := Rebind(query, params, c.dialect.placeholderStyle())
	if err != nil {
		return nil, err
	}

	args := make([]any, len(params))
	for i, p := range params {
		arg, err := bindValue(p, c.dialect)
		if err != nil {
			return nil, fmt.Errorf("failed to bind parameter %d: %w", i+1, err)
		}
		args[i] = arg
	}

	slog.DebugContext(ctx, "execute sql", "dialect", c.dialect, "sql", query, "params", len(args))
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return scanDaos(rows, c.dialect)
}

func scanDaos(rows *sql.Rows, dialect Dialect) ([]*dao.Dao, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var data []*dao.Dao
	for rows.Next() {
		values := make([]interface{}, len(columnTypes))
		valuePtrs := make([]interface{}, len(columnTypes))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := dao.New()
		for i, col := range columnTypes {
			v, err := decodeValue(values[i], col.DatabaseTypeName(), dialect)
			if err != nil {
				return nil, fmt.Errorf("failed to decode column %s: %w", col.Name(), err)
			}
			row.Insert(col.Name(), v)
		}

		data = append(data, row)
	}

	return data, rows.Err()
}
