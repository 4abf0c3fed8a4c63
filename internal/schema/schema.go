// Package schema describes tables and columns as reconstructed from a
// database catalog.
package schema

// Index represents a database index
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
	Primary bool     `json:"primary"`
	Type    string   `json:"type"` // e.g., BTREE, HASH
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name             string `json:"name"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	OnDelete         string `json:"on_delete"` // CASCADE, SET NULL, etc.
	OnUpdate         string `json:"on_update"`
}

// Table represents a complete table definition
type Table struct {
	Name        TableName    `json:"name"`
	Comment     *string      `json:"comment,omitempty"`
	Columns     []ColumnDef  `json:"columns"`
	Indexes     []Index      `json:"indexes"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*ColumnDef, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name.Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary key column names, if the table has one.
func (t *Table) PrimaryKey() []string {
	for _, idx := range t.Indexes {
		if idx.Primary {
			return idx.Columns
		}
	}
	return nil
}
