// Package diff compares two tables aligned on join keys. It partitions rows
// into common, base-only and compare-only sets and classifies every non-key
// column of the common rows as matching or not.
package diff

import (
	"fmt"

	"github.com/koba/table-diff/internal/join"
	"github.com/koba/table-diff/internal/schema"
)

// Options controls how values of common rows are compared
type Options struct {
	AbsTolerance float64 `json:"abs_tolerance" yaml:"abs_tolerance"`
	RelTolerance float64 `json:"rel_tolerance" yaml:"rel_tolerance"`
	IgnoreSpaces bool    `json:"ignore_spaces" yaml:"ignore_spaces"`
	IgnoreCase   bool    `json:"ignore_case" yaml:"ignore_case"`
}

// MatchedRow is a pair of rows sharing the same key values
type MatchedRow struct {
	Base       schema.Row
	Compare    schema.Row
	Mismatched []string // non-key columns whose values differ
}

// Result holds the complete comparison result. It is never modified after
// Compare returns.
type Result struct {
	JoinKeys []string
	Options  Options
	Base     *schema.Table
	Compare  *schema.Table

	IntersectColumns   []string
	BaseOnlyColumns    []string
	CompareOnlyColumns []string

	BaseOnlyRows    []schema.Row
	CompareOnlyRows []schema.Row
	CommonRows      []MatchedRow

	// Columns has one entry per non-key column present in both tables
	Columns []ColumnComparison
}

// Compare joins base and compare on keys and compares the common rows.
// A nil table yields a nil result and no error.
func Compare(base, compare *schema.Table, keys []string, opts Options) (*Result, error) {
	if base == nil || compare == nil {
		return nil, nil
	}

	merged, err := join.OuterJoin(base, compare, keys)
	if err != nil {
		return nil, fmt.Errorf("outer join failed: %w", err)
	}

	result := &Result{
		JoinKeys: append([]string(nil), keys...),
		Options:  opts,
		Base:     base,
		Compare:  compare,
	}
	result.IntersectColumns, result.BaseOnlyColumns, result.CompareOnlyColumns = compareColumnSets(base, compare)
	result.Columns = columnComparisons(merged, base, compare)

	for _, row := range merged.Rows {
		switch row.Indicator {
		case join.LeftOnly:
			result.BaseOnlyRows = append(result.BaseOnlyRows, base.Rows[row.BaseIndex])
		case join.RightOnly:
			result.CompareOnlyRows = append(result.CompareOnlyRows, compare.Rows[row.CompareIndex])
		case join.Both:
			result.CommonRows = append(result.CommonRows, result.compareRow(
				base.Rows[row.BaseIndex], compare.Rows[row.CompareIndex]))
		}
	}

	return result, nil
}

// compareRow classifies every compared column of a common row and updates the column tallies
func (r *Result) compareRow(baseRow, compareRow schema.Row) MatchedRow {
	matched := MatchedRow{Base: baseRow, Compare: compareRow}

	for i := range r.Columns {
		col := &r.Columns[i]
		a, b := baseRow[col.baseIdx], compareRow[col.compareIdx]

		if (a == nil) != (b == nil) {
			col.NullDiff++
		}
		if d, ok := numericDiff(a, b); ok && d > col.MaxDiff {
			col.MaxDiff = d
		}

		if valuesEqual(a, b, r.Options) {
			col.MatchCount++
			continue
		}
		col.MismatchCount++
		matched.Mismatched = append(matched.Mismatched, col.Column)
	}

	return matched
}

// CountMatchingRows returns the number of common rows whose compared columns all match
func (r *Result) CountMatchingRows() int {
	n := 0
	for _, row := range r.CommonRows {
		if len(row.Mismatched) == 0 {
			n++
		}
	}
	return n
}

// AllColumnsMatch reports whether both tables have the same column names
func (r *Result) AllColumnsMatch() bool {
	return len(r.BaseOnlyColumns) == 0 && len(r.CompareOnlyColumns) == 0
}

// AllRowsOverlap reports whether every row found a partner on the other side
func (r *Result) AllRowsOverlap() bool {
	return len(r.BaseOnlyRows) == 0 && len(r.CompareOnlyRows) == 0
}

// MatchesExactly reports whether the tables have the same columns, the same
// keys and equal values everywhere
func (r *Result) MatchesExactly() bool {
	return r.AllColumnsMatch() && r.AllRowsOverlap() && r.CountMatchingRows() == len(r.CommonRows)
}

// MismatchedRows returns the common rows with at least one differing column
func (r *Result) MismatchedRows() []MatchedRow {
	var rows []MatchedRow
	for _, row := range r.CommonRows {
		if len(row.Mismatched) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// ColumnMismatches returns the compared columns with at least one differing value
func (r *Result) ColumnMismatches() []ColumnComparison {
	var cols []ColumnComparison
	for _, col := range r.Columns {
		if col.MismatchCount > 0 {
			cols = append(cols, col)
		}
	}
	return cols
}

// SampleMismatch returns up to n mismatched rows as a table: the join keys
// followed by a base/compare pair for each column that has mismatches.
// n <= 0 returns every mismatched row.
func (r *Result) SampleMismatch(n int) *schema.Table {
	t := &schema.Table{Name: "mismatches"}

	keyIdx := make([]int, len(r.JoinKeys))
	for i, key := range r.JoinKeys {
		keyIdx[i] = r.Base.ColumnIndex(key)
		col, _ := r.Base.Column(key)
		t.Columns = append(t.Columns, schema.Column{Name: key, Type: col.Type, Position: len(t.Columns)})
	}

	cols := r.ColumnMismatches()
	for _, col := range cols {
		t.Columns = append(t.Columns,
			schema.Column{Name: col.BaseColumn, Type: col.BaseType, Position: len(t.Columns)},
			schema.Column{Name: col.CompareColumn, Type: col.CompareType, Position: len(t.Columns) + 1},
		)
	}

	for _, row := range r.MismatchedRows() {
		if n > 0 && len(t.Rows) == n {
			break
		}
		values := make(schema.Row, 0, len(t.Columns))
		for _, idx := range keyIdx {
			values = append(values, row.Base[idx])
		}
		for _, col := range cols {
			values = append(values, row.Base[col.baseIdx], row.Compare[col.compareIdx])
		}
		t.Rows = append(t.Rows, values)
	}

	return t
}

// UniqueRows returns the base-only or compare-only rows as a table
func (r *Result) UniqueRows(base bool) *schema.Table {
	src, rows, name := r.Compare, r.CompareOnlyRows, "compare_only"
	if base {
		src, rows, name = r.Base, r.BaseOnlyRows, "base_only"
	}
	return &schema.Table{
		Name:    name,
		Columns: append([]schema.Column(nil), src.Columns...),
		Rows:    rows,
	}
}
