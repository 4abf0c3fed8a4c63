package snapshot

import (
	"context"

	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/database"
)

const (
	// SQLite schema for storing snapshots
	createMetadataTable = `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	createTableSchemasTable = `
		CREATE TABLE IF NOT EXISTS table_schemas (
			table_name TEXT PRIMARY KEY,
			schema_json TEXT NOT NULL,
			fingerprint INTEGER NOT NULL
		);
	`
)

type metadataRecord struct {
	Key   string
	Value string
}

var metadataMapping = dao.MustMapping("metadata",
	dao.Field("key", func(r *metadataRecord) *string { return &r.Key }),
	dao.Field("value", func(r *metadataRecord) *string { return &r.Value }),
)

type tableSchemaRecord struct {
	TableName   string
	SchemaJSON  string
	Fingerprint int64
}

var tableSchemaMapping = dao.MustMapping("table_schemas",
	dao.Field("table_name", func(r *tableSchemaRecord) *string { return &r.TableName }),
	dao.Field("schema_json", func(r *tableSchemaRecord) *string { return &r.SchemaJSON }),
	dao.Field("fingerprint", func(r *tableSchemaRecord) *int64 { return &r.Fingerprint }),
)

// initializeSchema creates the necessary tables in the SQLite snapshot database
func initializeSchema(ctx context.Context, db *database.SQLite) error {
	schemas := []string{
		createMetadataTable,
		createTableSchemasTable,
	}

	for _, schema := range schemas {
		if err := db.Exec(ctx, schema); err != nil {
			return err
		}
	}

	return nil
}
