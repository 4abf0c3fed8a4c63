package database

import (
	"context"
	"net"

	"github.com/go-sql-driver/mysql"
)

// MySQL is a MySQL or MariaDB connection
type MySQL struct {
	sqlConn
	config Config
}

// NewMySQL creates a new MySQL database connection
func NewMySQL(config Config) *MySQL {
	return &MySQL{sqlConn: sqlConn{dialect: DialectMySQL}, config: config}
}

// Connect establishes a connection to MySQL
func (m *MySQL) Connect(ctx context.Context) error {
	cfg := mysql.NewConfig()
	cfg.User = m.config.User
	cfg.Passwd = m.config.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(m.config.Host, m.config.Port)
	cfg.DBName = m.config.Database
	cfg.ParseTime = true

	return m.open(ctx, "mysql", cfg.FormatDSN())
}

func (m *MySQL) Config() Config {
	return m.config
}
