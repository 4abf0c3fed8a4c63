package database

import (
	"reflect"
	"testing"

	"github.com/koba/db-dao/internal/value"
)

func TestRebind(t *testing.T) {
	params := []value.Value{value.Text("a"), value.Int(2), value.Bool(true)}

	tests := []struct {
		name      string
		query     string
		style     PlaceholderStyle
		wantQuery string
		wantArgs  []value.Value
	}{
		{
			"dollar untouched",
			"SELECT * FROM t WHERE a = $1 AND b = $2",
			PlaceholderDollar,
			"SELECT * FROM t WHERE a = $1 AND b = $2",
			params,
		},
		{
			"question reorders",
			"SELECT * FROM t WHERE b = $2 AND a = $1 AND c = $3",
			PlaceholderQuestion,
			"SELECT * FROM t WHERE b = ? AND a = ? AND c = ?",
			[]value.Value{value.Int(2), value.Text("a"), value.Bool(true)},
		},
		{
			"question repeats",
			"SELECT $1, $1",
			PlaceholderQuestion,
			"SELECT ?, ?",
			[]value.Value{value.Text("a"), value.Text("a")},
		},
		{
			"quoted text left alone",
			"SELECT '$1', `$2` FROM t WHERE a = $3",
			PlaceholderQuestion,
			"SELECT '$1', `$2` FROM t WHERE a = ?",
			[]value.Value{value.Bool(true)},
		},
		{
			"sql server",
			"SELECT * FROM t WHERE a = $1 AND b = $2",
			PlaceholderAtP,
			"SELECT * FROM t WHERE a = @p1 AND b = @p2",
			params,
		},
		{
			"bare dollar",
			"SELECT price$ FROM t WHERE a = $1",
			PlaceholderQuestion,
			"SELECT price$ FROM t WHERE a = ?",
			[]value.Value{value.Text("a")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := Rebind(tt.query, params, tt.style)
			if err != nil {
				t.Fatalf("Rebind: %v", err)
			}
			if query != tt.wantQuery {
				t.Errorf("query = %q, want %q", query, tt.wantQuery)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestRebindOutOfRange(t *testing.T) {
	if _, _, err := Rebind("SELECT $4", []value.Value{value.Int(1)}, PlaceholderQuestion); err == nil {
		t.Error("expected error for $4 with one parameter")
	}
	if _, _, err := Rebind("SELECT $0", []value.Value{value.Int(1)}, PlaceholderAtP); err == nil {
		t.Error("expected error for $0")
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"postgresql": DialectPostgres,
		"MySQL":      DialectMySQL,
		"sqlite3":    DialectSQLite,
		"mssql":      DialectSQLServer,
	} {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("expected error for oracle")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "postgresql")
	t.Setenv("DB_NAME", "dvdrental")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_SCHEMA", "")
	t.Setenv("DB_DRIVER", "pgx")

	config, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	want := Config{Type: "postgres", Driver: "pgx", Host: "localhost", Port: "5432", Database: "dvdrental", Schema: "public"}
	config.User, config.Password = "", ""
	if config != want {
		t.Errorf("config = %+v, want %+v", config, want)
	}

	t.Setenv("DB_NAME", "")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Error("expected error without DB_NAME")
	}
}
