// Package generator renders SQL that brings the compare-side table in line
// with the base side of a comparison.
package generator

import (
	"fmt"
	"strings"

	"github.com/koba/table-diff/internal/database"
	"github.com/koba/table-diff/internal/diff"
)

// GenerateSQL generates reconciliation SQL for table from a comparison result.
// Schema changes come first, then row changes. A nil result or a result
// without differences yields an empty string.
func GenerateSQL(r *diff.Result, table, dialect string) string {
	if r == nil {
		return ""
	}

	var sqlStatements []string

	// Generate DDL statements
	if sql := NewDDLGenerator(dialect).Generate(r, table); sql != "" {
		sqlStatements = append(sqlStatements, sql)
	}

	// Generate DML statements
	if sql := NewDMLGenerator(dialect).Generate(r, table); sql != "" {
		sqlStatements = append(sqlStatements, sql)
	}

	return strings.Join(sqlStatements, "\n\n")
}

func quoteIdentifier(dialect, name string) string {
	if database.NormalizeType(dialect) == "mysql" {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	// PostgreSQL and SQLite
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdentifiers(dialect string, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdentifier(dialect, name)
	}
	return quoted
}

func statement(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...) + ";"
}
