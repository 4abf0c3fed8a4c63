package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/koba/db-dao/internal/dao"
	"github.com/koba/db-dao/internal/value"
)

// ErrNotConnected is returned when a query is issued before Connect.
var ErrNotConnected = errors.New("database is not connected")

// Dialect identifies the SQL backend behind a connection
type Dialect string

const (
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectSQLite    Dialect = "sqlite"
	DialectSQLServer Dialect = "sqlserver"
)

// ParseDialect accepts the spellings users commonly put in DB_TYPE
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "sqlserver", "mssql":
		return DialectSQLServer, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", s)
	}
}

// Config holds database connection configuration
type Config struct {
	Type     string // "mysql", "postgres", "sqlite" or "sqlserver"
	Driver   string // postgres only: "postgres" (lib/pq) or "pgx"
	Host     string
	Port     string
	Database string // file path for sqlite
	User     string
	Password string
	Schema   string // default schema for unqualified table names
}

// Executor runs SQL with positional parameters and returns every row as a Dao.
// Statements are written with 1-indexed $n placeholders whatever the backend.
type Executor interface {
	ExecuteSQLWithReturn(ctx context.Context, sql string, params []value.Value) ([]*dao.Dao, error)
}

// Database is a connection to one of the supported backends
type Database interface {
	Executor
	Connect(ctx context.Context) error
	Close() error
	Dialect() Dialect
	Config() Config
}

// NewDatabase creates a new database connection based on type
func NewDatabase(config Config) (Database, error) {
	dialect, err := ParseDialect(config.Type)
	if err != nil {
		return nil, err
	}
	switch dialect {
	case DialectMySQL:
		return NewMySQL(config), nil
	case DialectPostgres:
		return NewPostgres(config), nil
	case DialectSQLite:
		return NewSQLite(config.Database), nil
	default:
		return NewSQLServer(config), nil
	}
}

// LoadConfigFromEnv loads database configuration from environment variables
func LoadConfigFromEnv() (Config, error) {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		return Config{}, fmt.Errorf("DB_TYPE environment variable is required")
	}
	dialect, err := ParseDialect(dbType)
	if err != nil {
		return Config{}, err
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	database := os.Getenv("DB_NAME")
	if database == "" {
		return Config{}, fmt.Errorf("DB_NAME environment variable is required")
	}

	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = defaultPort(dialect)
	}

	schemaName := os.Getenv("DB_SCHEMA")
	if schemaName == "" && dialect == DialectPostgres {
		schemaName = "public"
	}
	if schemaName == "" && dialect == DialectMySQL {
		schemaName = database
	}

	return Config{
		Type:     string(dialect),
		Driver:   os.Getenv("DB_DRIVER"),
		Host:     host,
		Port:     port,
		Database: database,
		User:     user,
		Password: password,
		Schema:   schemaName,
	}, nil
}

func defaultPort(dialect Dialect) string {
	switch dialect {
	case DialectMySQL:
		return "3306"
	case DialectPostgres:
		return "5432"
	case DialectSQLServer:
		return "1433"
	}
	return ""
}
