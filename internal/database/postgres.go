package database

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Postgres is a PostgreSQL connection through lib/pq, or pgx when
// Config.Driver is "pgx"
type Postgres struct {
	sqlConn
	config Config
}

// NewPostgres creates a new PostgreSQL database connection
func NewPostgres(config Config) *Postgres {
	return &Postgres{sqlConn: sqlConn{dialect: DialectPostgres}, config: config}
}

// Connect establishes a connection to PostgreSQL
func (p *Postgres) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.config.Host,
		p.config.Port,
		p.config.User,
		p.config.Password,
		p.config.Database,
	)

	driverName := "postgres"
	if p.config.Driver == "pgx" {
		driverName = "pgx"
	}
	return p.open(ctx, driverName, dsn)
}

func (p *Postgres) Config() Config {
	return p.config
}
