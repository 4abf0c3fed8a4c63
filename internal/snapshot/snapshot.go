// Package snapshot stores introspected table definitions in an SQLite file
// and loads them back for diffing.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/entity"
	"github.com/koba/db-dao/internal/introspect"
	"github.com/koba/db-dao/internal/schema"
)

// Snapshot represents a database snapshot
type Snapshot struct {
	Metadata map[string]string
	Tables   map[string]*schema.Table
	// Fingerprints holds the xxh3 hash of each table's declared shape.
	Fingerprints map[string]uint64
}

// Options controls how a snapshot is taken
type Options struct {
	// Tables to snapshot; empty means every table the introspector lists.
	Tables []schema.TableName
	// Concurrency bounds parallel table introspection, 0 means unbounded.
	Concurrency int
	// Dialect is recorded in the metadata.
	Dialect database.Dialect
}

// CreateSnapshot introspects the tables and writes them to outputPath,
// replacing any previous snapshot there.
func CreateSnapshot(ctx context.Context, in introspect.Introspector, outputPath string, opts Options) error {
	// Remove existing snapshot file if it exists
	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("failed to remove existing snapshot: %w", err)
		}
	}

	tables := opts.Tables
	if len(tables) == 0 {
		var err error
		tables, err = in.GetAllTables(ctx)
		if err != nil {
			return fmt.Errorf("failed to get all tables: %w", err)
		}
	}

	defs, err := introspect.GetTables(ctx, in, tables, opts.Concurrency)
	if err != nil {
		return err
	}

	snapshotDB := database.NewSQLite(outputPath)
	if err := snapshotDB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to create snapshot database: %w", err)
	}
	defer snapshotDB.Close()

	if err := initializeSchema(ctx, snapshotDB); err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	em := entity.New(snapshotDB)

	dialect := string(opts.Dialect)
	if dialect == "" {
		dialect = "unknown"
	}
	metadata := []*metadataRecord{
		{Key: "created_at", Value: time.Now().Format(time.RFC3339)},
		{Key: "db_type", Value: dialect},
		{Key: "tables", Value: fmt.Sprint(len(defs))},
	}
	if _, err := entity.Insert(ctx, em, metadataMapping, metadataMapping, metadata); err != nil {
		return fmt.Errorf("failed to insert metadata: %w", err)
	}

	records := make([]*tableSchemaRecord, 0, len(defs))
	for _, table := range defs {
		record, err := newTableSchemaRecord(table)
		if err != nil {
			return fmt.Errorf("failed to snapshot table %s: %w", table.Name.CompleteName(), err)
		}
		records = append(records, record)
	}
	if _, err := entity.Insert(ctx, em, tableSchemaMapping, tableSchemaMapping, records); err != nil {
		return fmt.Errorf("failed to insert schemas: %w", err)
	}

	return nil
}

func newTableSchemaRecord(table *schema.Table) (*tableSchemaRecord, error) {
	schemaJSON, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	fingerprint, err := Fingerprint(table)
	if err != nil {
		return nil, err
	}
	return &tableSchemaRecord{
		TableName:   table.Name.CompleteName(),
		SchemaJSON:  string(schemaJSON),
		Fingerprint: int64(fingerprint),
	}, nil
}

// Fingerprint hashes the declared shape of a table. Column statistics do
// not take part, so re-analyzing a table keeps its fingerprint.
func Fingerprint(table *schema.Table) (uint64, error) {
	shape := *table
	shape.Columns = make([]schema.ColumnDef, len(table.Columns))
	for i, c := range table.Columns {
		c.Stat = nil
		shape.Columns[i] = c
	}
	b, err := json.Marshal(shape)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return xxh3.Hash(b), nil
}

// LoadSnapshot loads a snapshot from a SQLite file
func LoadSnapshot(ctx context.Context, snapshotPath string) (*Snapshot, error) {
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot file does not exist: %s", snapshotPath)
	}

	db := database.NewSQLite(snapshotPath)
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	em := entity.New(db)

	snapshot := &Snapshot{
		Metadata:     make(map[string]string),
		Tables:       make(map[string]*schema.Table),
		Fingerprints: make(map[string]uint64),
	}

	metadata, err := entity.GetAll(ctx, em, metadataMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	for _, m := range metadata {
		snapshot.Metadata[m.Key] = m.Value
	}

	records, err := entity.GetAll(ctx, em, tableSchemaMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to query table schemas: %w", err)
	}
	for _, r := range records {
		var table schema.Table
		if err := json.Unmarshal([]byte(r.SchemaJSON), &table); err != nil {
			return nil, fmt.Errorf("failed to unmarshal schema of %s: %w", r.TableName, err)
		}
		snapshot.Tables[r.TableName] = &table
		snapshot.Fingerprints[r.TableName] = uint64(r.Fingerprint)
	}

	return snapshot, nil
}
