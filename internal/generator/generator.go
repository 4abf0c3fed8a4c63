// Package generator renders migration DDL from a snapshot diff.
package generator

import (
	"strings"

	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/diff"
)

// GenerateSQL generates migration SQL from a diff result
func GenerateSQL(result *diff.DiffResult, dialect database.Dialect) string {
	var sqlStatements []string

	ddlGen := NewDDLGenerator(dialect)
	for _, schemaDiff := range result.SchemaDiffs {
		sql := ddlGen.Generate(schemaDiff)
		if sql != "" {
			sqlStatements = append(sqlStatements, sql)
		}
	}

	return strings.Join(sqlStatements, "\n\n")
}
