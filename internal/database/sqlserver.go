package database

import (
	"context"
	"net"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"
)

// SQLServer is a Microsoft SQL Server connection. It serves the entity
// layer only; there is no catalog introspection for it.
type SQLServer struct {
	sqlConn
	config Config
}

func NewSQLServer(config Config) *SQLServer {
	return &SQLServer{sqlConn: sqlConn{dialect: DialectSQLServer}, config: config}
}

// Connect establishes a connection to SQL Server
func (s *SQLServer) Connect(ctx context.Context) error {
	query := url.Values{}
	query.Set("database", s.config.Database)
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(s.config.User, s.config.Password),
		Host:     net.JoinHostPort(s.config.Host, s.config.Port),
		RawQuery: query.Encode(),
	}
	return s.open(ctx, "sqlserver", u.String())
}

func (s *SQLServer) Config() Config {
	return s.config
}
