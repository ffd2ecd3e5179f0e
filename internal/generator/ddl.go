package generator

import (
	"strings"

	"github.com/koba/table-diff/internal/database"
	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/schema"
)

// DDLGenerator generates column changes
type DDLGenerator struct {
	dialect string
}

// NewDDLGenerator creates a new DDL generator
func NewDDLGenerator(dialect string) *DDLGenerator {
	return &DDLGenerator{dialect: dialect}
}

// Generate adds the base-only columns and drops the compare-only ones
func (g *DDLGenerator) Generate(r *diff.Result, table string) string {
	var statements []string

	for _, name := range r.BaseOnlyColumns {
		col, _ := r.Base.Column(name)
		statements = append(statements, statement("ALTER TABLE %s ADD COLUMN %s %s",
			quoteIdentifier(g.dialect, table),
			quoteIdentifier(g.dialect, name),
			g.columnType(col.Type),
		))
	}

	for _, name := range r.CompareOnlyColumns {
		statements = append(statements, statement("ALTER TABLE %s DROP COLUMN %s",
			quoteIdentifier(g.dialect, table),
			quoteIdentifier(g.dialect, name),
		))
	}

	return strings.Join(statements, "\n")
}

// columnType maps a column type onto the dialect's type name
func (g *DDLGenerator) columnType(t schema.DataType) string {
	switch database.NormalizeType(g.dialect) {
	case "postgres":
		switch t {
		case schema.TypeInt:
			return "BIGINT"
		case schema.TypeFloat:
			return "DOUBLE PRECISION"
		case schema.TypeBool:
			return "BOOLEAN"
		case schema.TypeDatetime:
			return "TIMESTAMP"
		}
		return "TEXT"
	case "sqlite":
		switch t {
		case schema.TypeInt, schema.TypeBool:
			return "INTEGER"
		case schema.TypeFloat:
			return "REAL"
		}
		return "TEXT"
	}

	// MySQL
	switch t {
	case schema.TypeInt:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE"
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeDatetime:
		return "DATETIME"
	}
	return "TEXT"
}
