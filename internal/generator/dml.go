package generator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/schema"
)

// DMLGenerator generates row changes
type DMLGenerator struct {
	dialect string
}

// NewDMLGenerator creates a new DML generator
func NewDMLGenerator(dialect string) *DMLGenerator {
	return &DMLGenerator{dialect: dialect}
}

// Generate deletes the compare-only rows, inserts the base-only rows and
// updates the mismatched columns of the common rows
func (g *DMLGenerator) Generate(r *diff.Result, table string) string {
	var statements []string

	// Generate DELETE statements
	for _, row := range r.CompareOnlyRows {
		statements = append(statements, g.generateDelete(r, table, row))
	}

	// Generate INSERT statements
	for _, row := range r.BaseOnlyRows {
		statements = append(statements, g.generateInsert(r.Base, table, row))
	}

	// Generate UPDATE statements
	for _, row := range r.MismatchedRows() {
		statements = append(statements, g.generateUpdate(r, table, row))
	}

	return strings.Join(statements, "\n")
}

func (g *DMLGenerator) generateInsert(t *schema.Table, table string, row schema.Row) string {
	values := make([]string, len(row))
	for i, val := range row {
		values[i] = g.formatValue(val)
	}

	return statement("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(g.dialect, table),
		strings.Join(quoteIdentifiers(g.dialect, t.ColumnNames()), ", "),
		strings.Join(values, ", "),
	)
}

func (g *DMLGenerator) generateDelete(r *diff.Result, table string, row schema.Row) string {
	return statement("DELETE FROM %s WHERE %s",
		quoteIdentifier(g.dialect, table),
		g.buildWhereClause(r.JoinKeys, r.Compare, row),
	)
}

// generateUpdate sets the mismatched columns to their base values. The row
// is located by the compare-side key values.
func (g *DMLGenerator) generateUpdate(r *diff.Result, table string, row diff.MatchedRow) string {
	setClauses := make([]string, len(row.Mismatched))
	for i, col := range row.Mismatched {
		setClauses[i] = fmt.Sprintf("%s = %s",
			quoteIdentifier(g.dialect, col),
			g.formatValue(row.Base[r.Base.ColumnIndex(col)]),
		)
	}

	return statement("UPDATE %s SET %s WHERE %s",
		quoteIdentifier(g.dialect, table),
		strings.Join(setClauses, ", "),
		g.buildWhereClause(r.JoinKeys, r.Compare, row.Compare),
	)
}

func (g *DMLGenerator) buildWhereClause(keys []string, t *schema.Table, row schema.Row) string {
	conditions := make([]string, len(keys))

	for i, key := range keys {
		val := row[t.ColumnIndex(key)]
		if val == nil {
			conditions[i] = fmt.Sprintf("%s IS NULL", quoteIdentifier(g.dialect, key))
		} else {
			conditions[i] = fmt.Sprintf("%s = %s", quoteIdentifier(g.dialect, key), g.formatValue(val))
		}
	}

	return strings.Join(conditions, " AND ")
}

func (g *DMLGenerator) formatValue(val interface{}) string {
	if val == nil {
		return "NULL"
	}

	switch v := val.(type) {
	case string:
		// Escape single quotes
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return "'" + v.Format("2006-01-02 15:04:05") + "'"
	default:
		// Fallback to string representation
		return "'" + strings.ReplaceAll(schema.FormatValue(v), "'", "''") + "'"
	}
}
