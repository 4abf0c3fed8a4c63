package generator

import (
	"strings"

	"github.com/koba/db-dao/internal/schema"
)

var postgresTypes = map[schema.TypeKind]string{
	schema.TypeBool:        "boolean",
	schema.TypeTinyint:     "smallint",
	schema.TypeSmallint:    "smallint",
	schema.TypeInt:         "integer",
	schema.TypeBigint:      "bigint",
	schema.TypeReal:        "real",
	schema.TypeFloat:       "real",
	schema.TypeDouble:      "double precision",
	schema.TypeNumeric:     "numeric",
	schema.TypeTinyblob:    "bytea",
	schema.TypeMediumblob:  "bytea",
	schema.TypeBlob:        "bytea",
	schema.TypeLongblob:    "bytea",
	schema.TypeVarbinary:   "bytea",
	schema.TypeChar:        "char",
	schema.TypeVarchar:     "varchar",
	schema.TypeTinytext:    "text",
	schema.TypeMediumtext:  "text",
	schema.TypeText:        "text",
	schema.TypeJSON:        "jsonb",
	schema.TypeTsVector:    "tsvector",
	schema.TypeUUID:        "uuid",
	schema.TypeDate:        "date",
	schema.TypeTime:        "time",
	schema.TypeTimeTz:      "time with time zone",
	schema.TypeTimestamp:   "timestamp",
	schema.TypeTimestampTz: "timestamp with time zone",
	schema.TypeIPAddress:   "inet",
	schema.TypePoint:       "point",
	schema.TypeInterval:    "interval",
}

var mysqlTypes = map[schema.TypeKind]string{
	schema.TypeBool:        "boolean",
	schema.TypeTinyint:     "tinyint",
	schema.TypeSmallint:    "smallint",
	schema.TypeInt:         "int",
	schema.TypeBigint:      "bigint",
	schema.TypeReal:        "float",
	schema.TypeFloat:       "float",
	schema.TypeDouble:      "double",
	schema.TypeNumeric:     "decimal",
	schema.TypeTinyblob:    "tinyblob",
	schema.TypeMediumblob:  "mediumblob",
	schema.TypeBlob:        "blob",
	schema.TypeLongblob:    "longblob",
	schema.TypeVarbinary:   "varbinary",
	schema.TypeChar:        "char",
	schema.TypeVarchar:     "varchar",
	schema.TypeTinytext:    "tinytext",
	schema.TypeMediumtext:  "mediumtext",
	schema.TypeText:        "text",
	schema.TypeJSON:        "json",
	schema.TypeTsVector:    "text",
	schema.TypeUUID:        "char(36)",
	schema.TypeDate:        "date",
	schema.TypeTime:        "time",
	schema.TypeTimeTz:      "time",
	schema.TypeTimestamp:   "datetime",
	schema.TypeTimestampTz: "timestamp",
	schema.TypeIPAddress:   "varchar(45)",
	schema.TypePoint:       "point",
	schema.TypeInterval:    "time",
	// MySQL has no array columns.
	schema.TypeArray: "json",
}

// columnType renders the type of a column, capacity included.
func (g *DDLGenerator) columnType(spec schema.ColumnSpecification) string {
	t := spec.SqlType
	if g.postgres() {
		switch t.Kind {
		case schema.TypeEnum:
			return g.quoteIdentifier(t.Name)
		case schema.TypeArray:
			if t.Elem == nil {
				return "text[]"
			}
			return g.columnType(schema.ColumnSpecification{SqlType: *t.Elem, Capacity: spec.Capacity}) + "[]"
		}
		return postgresTypes[t.Kind] + spec.Capacity.String()
	}

	if t.Kind == schema.TypeEnum {
		choices := make([]string, len(t.Choices))
		for i, c := range t.Choices {
			choices[i] = "'" + strings.ReplaceAll(c, "'", "''") + "'"
		}
		return "enum(" + strings.Join(choices, ",") + ")"
	}
	name := mysqlTypes[t.Kind]
	if strings.Contains(name, "(") {
		return name
	}
	return name + spec.Capacity.String()
}
