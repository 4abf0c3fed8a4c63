package generator

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/koba/db-dao/internal/database"
	"github.com/koba/db-dao/internal/diff"
	"github.com/koba/db-dao/internal/schema"
)

// DDLGenerator generates DDL statements
type DDLGenerator struct {
	dialect database.Dialect
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(dialect database.Dialect) *DDLGenerator {
	return &DDLGenerator{dialect: dialect}
}

func (g *DDLGenerator) postgres() bool {
	return g.dialect == database.DialectPostgres
}

// Generate generates DDL for a schema diff
func (g *DDLGenerator) Generate(schemaDiff *diff.SchemaDiff) string {
	var statements []string

	switch schemaDiff.Action {
	case diff.ActionAdd:
		statements = append(statements, g.CreateTable(schemaDiff.NewTable))

	case diff.ActionDrop:
		statements = append(statements, g.generateDropTable(schemaDiff.OldTable.Name))

	case diff.ActionModify:
		table := schemaDiff.NewTable.Name

		// Drop foreign keys first
		for _, fkChange := range schemaDiff.ForeignKeyChanges {
			if fkChange.Action == diff.ActionDrop || fkChange.Action == diff.ActionModify {
				statements = append(statements, g.generateDropForeignKey(table, fkChange.Old.Name))
			}
		}

		// Drop indexes
		for _, idxChange := range schemaDiff.IndexChanges {
			if idxChange.Action == diff.ActionDrop || idxChange.Action == diff.ActionModify {
				if !idxChange.Old.Primary { // Don't drop primary key index directly
					statements = append(statements, g.generateDropIndex(table, idxChange.Old.Name))
				}
			}
		}

		for _, colChange := range schemaDiff.ColumnChanges {
			switch colChange.Action {
			case diff.ActionAdd:
				statements = append(statements, g.generateAddColumn(table, colChange.New))
			case diff.ActionDrop:
				statements = append(statements, g.generateDropColumn(table, colChange.Name))
			case diff.ActionModify:
				statements = append(statements, g.generateModifyColumn(table, colChange.New)...)
			}
		}

		// Add indexes
		for _, idxChange := range schemaDiff.IndexChanges {
			if idxChange.Action == diff.ActionAdd || idxChange.Action == diff.ActionModify {
				if !idxChange.New.Primary { // Primary key is part of CREATE TABLE
					statements = append(statements, g.generateCreateIndex(table, idxChange.New))
				}
			}
		}

		// Add foreign keys
		for _, fkChange := range schemaDiff.ForeignKeyChanges {
			if fkChange.Action == diff.ActionAdd || fkChange.Action == diff.ActionModify {
				statements = append(statements, g.generateAddForeignKey(table, fkChange.New))
			}
		}
	}

	return strings.Join(statements, "\n")
}

// CreateTable renders the CREATE TABLE statement of a table
func (g *DDLGenerator) CreateTable(table *schema.Table) string {
	var parts []string

	for _, col := range table.Columns {
		parts = append(parts, g.columnDefinition(col))
	}

	if pk := table.PrimaryKey(); len(pk) > 0 {
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(g.quoteIdentifiers(pk), ", ")))
	}

	for _, fk := range table.ForeignKeys {
		parts = append(parts, "CONSTRAINT "+g.foreignKeyClause(fk))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n  %s\n);", g.quoteTable(table.Name), strings.Join(parts, ",\n  "))
	for _, idx := range table.Indexes {
		if !idx.Primary {
			sb.WriteString("\n")
			sb.WriteString(g.generateCreateIndex(table.Name, &idx))
		}
	}
	return sb.String()
}

func (g *DDLGenerator) generateDropTable(table schema.TableName) string {
	return fmt.Sprintf("DROP TABLE %s;", g.quoteTable(table))
}

func (g *DDLGenerator) generateAddColumn(table schema.TableName, col *schema.ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", g.quoteTable(table), g.columnDefinition(*col))
}

func (g *DDLGenerator) generateDropColumn(table schema.TableName, columnName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", g.quoteTable(table), g.quoteIdentifier(columnName))
}

func (g *DDLGenerator) generateModifyColumn(table schema.TableName, col *schema.ColumnDef) []string {
	if !g.postgres() {
		return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", g.quoteTable(table), g.columnDefinition(*col))}
	}

	prefix := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", g.quoteTable(table), g.quoteIdentifier(col.Name.Name))
	spec := col.Specification
	statements := []string{fmt.Sprintf("%s TYPE %s;", prefix, g.columnType(spec))}
	if spec.NotNull() {
		statements = append(statements, prefix+" SET NOT NULL;")
	} else {
		statements = append(statements, prefix+" DROP NOT NULL;")
	}
	if def := g.defaultExpression(spec); def != "" {
		statements = append(statements, fmt.Sprintf("%s SET DEFAULT %s;", prefix, def))
	} else {
		statements = append(statements, prefix+" DROP DEFAULT;")
	}
	return statements
}

func (g *DDLGenerator) generateCreateIndex(table schema.TableName, idx *schema.Index) string {
	indexType := ""
	if idx.Unique {
		indexType = "UNIQUE "
	}

	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		indexType,
		g.quoteIdentifier(idx.Name),
		g.quoteTable(table),
		strings.Join(g.quoteIdentifiers(idx.Columns), ", "),
	)
}

func (g *DDLGenerator) generateDropIndex(table schema.TableName, indexName string) string {
	if g.postgres() {
		return fmt.Sprintf("DROP INDEX %s;", g.quoteIdentifier(indexName))
	}
	return fmt.Sprintf("DROP INDEX %s ON %s;", g.quoteIdentifier(indexName), g.quoteTable(table))
}

func (g *DDLGenerator) generateAddForeignKey(table schema.TableName, fk *schema.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s;", g.quoteTable(table), g.foreignKeyClause(*fk))
}

func (g *DDLGenerator) foreignKeyClause(fk schema.ForeignKey) string {
	def := fmt.Sprintf("%s FOREIGN KEY (%s) REFERENCES %s(%s)",
		g.quoteIdentifier(fk.Name),
		g.quoteIdentifier(fk.Column),
		g.quoteIdentifier(fk.ReferencedTable),
		g.quoteIdentifier(fk.ReferencedColumn),
	)
	if fk.OnDelete != "" {
		def += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		def += " ON UPDATE " + fk.OnUpdate
	}
	return def
}

func (g *DDLGenerator) generateDropForeignKey(table schema.TableName, fkName string) string {
	if g.postgres() {
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", g.quoteTable(table), g.quoteIdentifier(fkName))
	}
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", g.quoteTable(table), g.quoteIdentifier(fkName))
}

func (g *DDLGenerator) columnDefinition(col schema.ColumnDef) string {
	spec := col.Specification
	def := g.quoteIdentifier(col.Name.Name) + " " + g.columnType(spec)

	if spec.NotNull() {
		def += " NOT NULL"
	}

	if seq, ok := spec.AutoIncrement(); ok {
		switch {
		case !g.postgres():
			def += " AUTO_INCREMENT"
		case seq != "":
			def += fmt.Sprintf(" DEFAULT nextval('%s'::regclass)", seq)
		default:
			def += " GENERATED BY DEFAULT AS IDENTITY"
		}
		return def
	}

	if expr := g.defaultExpression(spec); expr != "" {
		def += " DEFAULT " + expr
	}
	return def
}

// defaultExpression renders the declared default, or "" when there is none.
// Array defaults get an explicit cast on PostgreSQL.
func (g *DDLGenerator) defaultExpression(spec schema.ColumnSpecification) string {
	lit := spec.Default()
	if lit == nil {
		return ""
	}
	switch lit.Kind {
	case schema.LiteralArrayInt, schema.LiteralArrayFloat, schema.LiteralArrayString:
		if g.postgres() {
			return lit.SQL() + "::" + g.columnType(spec)
		}
	case schema.LiteralUUIDGenerateV4:
		if !g.postgres() {
			return "(uuid())"
		}
	}
	return lit.SQL()
}

func (g *DDLGenerator) quoteIdentifier(name string) string {
	switch g.dialect {
	case database.DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case database.DialectSQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return pq.QuoteIdentifier(name)
	}
}

func (g *DDLGenerator) quoteTable(table schema.TableName) string {
	if table.Schema != "" {
		return g.quoteIdentifier(table.Schema) + "." + g.quoteIdentifier(table.Name)
	}
	return g.quoteIdentifier(table.Name)
}

func (g *DDLGenerator) quoteIdentifiers(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = g.quoteIdentifier(name)
	}
	return quoted
}
