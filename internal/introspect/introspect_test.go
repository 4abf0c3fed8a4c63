package introspect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/entity"
	"github.com/koba/db-dao/internal/schema"
)

type stubIntrospector struct {
	running, peak atomic.Int32
	fail          string
}

func (s *stubIntrospector) GetAllTables(ctx context.Context) ([]schema.TableName, error) {
	return nil, nil
}

func (s *stubIntrospector) GetColumns(ctx context.Context, table schema.TableName) ([]schema.ColumnDef, error) {
	return nil, nil
}

func (s *stubIntrospector) GetTable(ctx context.Context, table schema.TableName) (*schema.Table, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if table.Name == s.fail {
		return nil, ErrTableNotFound
	}
	return &schema.Table{Name: table}, nil
}

func TestGetTables(t *testing.T) {
	names := []schema.TableName{{Name: "c"}, {Name: "a"}, {Name: "b"}, {Name: "d"}}
	in := &stubIntrospector{}

	tables, err := GetTables(context.Background(), in, names, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i, table := range tables {
		if table.Name != names[i] {
			t.Errorf("table %d = %s, want %s", i, table.Name, names[i])
		}
	}
	if peak := in.peak.Load(); peak > 2 {
		t.Errorf("ran %d introspections at once, limit is 2", peak)
	}
}

func TestGetTablesError(t *testing.T) {
	in := &stubIntrospector{fail: "b"}
	_, err := GetTables(context.Background(), in, []schema.TableName{{Name: "a"}, {Name: "b"}}, 0)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("err = %v, want ErrTableNotFound", err)
	}
}

func TestNew(t *testing.T) {
	em := entity.New(newCatalogExecutor())

	in, err := New(database.DialectPostgres, em, "")
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := in.(*Postgres); !ok || p.defaultSchema != "public" {
		t.Errorf("New(postgres) = %#v", in)
	}

	if _, err := New(database.DialectMySQL, em, "sakila"); err != nil {
		t.Errorf("New(mysql): %v", err)
	}
	if _, err := New(database.DialectSQLite, em, ""); err == nil {
		t.Error("expected error for sqlite")
	}
}
