// Package introspect reads a live database catalog and rebuilds a normalized
// model of its tables and columns, including parsed column defaults.
package introspect

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/entity"
	"github.com/koba/db-dao/internal/schema"
)

var (
	// ErrCatalogInvariant means a catalog query that must yield exactly one
	// row per column yielded zero or several. It points at a defect in the
	// catalog query or the target schema, not at bad input.
	ErrCatalogInvariant = errors.New("catalog invariant violated")
	// ErrUnsupportedType is returned for native column types the type
	// registry does not know.
	ErrUnsupportedType = errors.New("unsupported column type")
	// ErrUnsupportedDefault is returned for default expressions the parser
	// does not recognize for the column's type.
	ErrUnsupportedDefault = errors.New("unsupported default expression")
	// ErrTableNotFound is returned when the catalog has no such table.
	ErrTableNotFound = errors.New("table not found")
)

// CatalogShapeError reports a column whose type or default could not be
// classified. Introspection stops rather than guess.
type CatalogShapeError struct {
	Table  string
	Column string
	Err    error
}

func (e *CatalogShapeError) Error() string {
	return fmt.Sprintf("column %s.%s: %v", e.Table, e.Column, e.Err)
}

func (e *CatalogShapeError) Unwrap() error { return e.Err }

// Introspector reads table definitions from a catalog
type Introspector interface {
	GetAllTables(ctx context.Context) ([]schema.TableName, error)
	GetColumns(ctx context.Context, table schema.TableName) ([]schema.ColumnDef, error)
	GetTable(ctx context.Context, table schema.TableName) (*schema.Table, error)
}

// New returns the introspector for dialect. defaultSchema is used for table
// names without a schema.
func New(dialect database.Dialect, em *entity.EntityManager, defaultSchema string) (Introspector, error) {
	switch dialect {
	case database.DialectPostgres:
		if defaultSchema == "" {
			defaultSchema = "public"
		}
		return NewPostgres(em, defaultSchema), nil
	case database.DialectMySQL:
		return NewMySQL(em, defaultSchema), nil
	default:
		return nil, fmt.Errorf("introspection is not supported for %s", dialect)
	}
}

// GetTables introspects tables concurrently, at most limit at a time, and
// returns them in the order asked for. limit <= 0 means no limit.
func GetTables(ctx context.Context, in Introspector, tables []schema.TableName, limit int) ([]*schema.Table, error) {
	result := make([]*schema.Table, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, name := range tables {
		g.Go(func() error {
			table, err := in.GetTable(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to introspect %s: %w", name.CompleteName(), err)
			}
			result[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
