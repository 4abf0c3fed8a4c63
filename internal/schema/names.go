package schema

import "strings"

// TableName is a possibly schema-qualified table reference
type TableName struct {
	Schema string `json:"schema,omitempty"`
	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
}

// ParseTableName splits "schema.table" into its parts. A bare name has no schema.
func ParseTableName(s string) TableName {
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		return TableName{Schema: s[:i], Name: s[i+1:]}
	}
	return TableName{Name: s}
}

// CompleteName renders schema.name, or just name without a schema
func (t TableName) CompleteName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// SchemaOr returns the table's schema, or def when none was given.
func (t TableName) SchemaOr(def string) string {
	if t.Schema != "" {
		return t.Schema
	}
	return def
}

func (t TableName) String() string { return t.CompleteName() }

// ColumnName is a possibly table-qualified column reference
type ColumnName struct {
	Table string `json:"table,omitempty"`
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// ParseColumnName splits "table.column" into its parts.
func ParseColumnName(s string) ColumnName {
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		return ColumnName{Table: s[:i], Name: s[i+1:]}
	}
	return ColumnName{Name: s}
}

func (c ColumnName) CompleteName() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

func (c ColumnName) String() string { return c.CompleteName() }

// JoinColumnNames renders names as a comma separated list
func JoinColumnNames(columns []ColumnName) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
