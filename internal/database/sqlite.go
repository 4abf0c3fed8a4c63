package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite is a connection to an SQLite file
type SQLite struct {
	sqlConn
	path string
}

func NewSQLite(path string) *SQLite {
	return &SQLite{sqlConn: sqlConn{dialect: DialectSQLite}, path: path}
}

// Connect opens the file, creating its directory when needed
func (s *SQLite) Connect(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
		}
	}
	return s.open(ctx, "sqlite", s.path)
}

func (s *SQLite) Config() Config {
	return Config{Type: string(DialectSQLite), Database: s.path}
}

// Exec runs a statement that returns no rows, such as DDL.
func (s *SQLite) Exec(ctx context.Context, stmt string) error {
	if s.db == nil {
		return ErrNotConnected
	}
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}
