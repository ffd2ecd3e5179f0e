package diff

import (
	"github.com/koba/table-diff/internal/join"
	"github.com/koba/table-diff/internal/schema"
)

// ColumnComparison is the outcome of comparing one column over the common rows
type ColumnComparison struct {
	Column        string          `json:"column" yaml:"column"`
	BaseColumn    string          `json:"base_column" yaml:"base_column"`
	CompareColumn string          `json:"compare_column" yaml:"compare_column"`
	BaseType      schema.DataType `json:"base_type" yaml:"base_type"`
	CompareType   schema.DataType `json:"compare_type" yaml:"compare_type"`
	MatchCount    int             `json:"match_count" yaml:"match_count"`
	MismatchCount int             `json:"mismatch_count" yaml:"mismatch_count"`
	MaxDiff       float64         `json:"max_diff" yaml:"max_diff"`
	NullDiff      int             `json:"null_diff" yaml:"null_diff"`

	baseIdx    int
	compareIdx int
}

// TypesMatch reports whether the column has the same type on both sides
func (c ColumnComparison) TypesMatch() bool {
	return c.BaseType == c.CompareType
}

// compareColumnSets splits the column names into shared, base-only and
// compare-only, each in the order of the table it comes from
func compareColumnSets(base, compare *schema.Table) (intersect, baseOnly, compareOnly []string) {
	for _, name := range base.ColumnNames() {
		if compare.HasColumn(name) {
			intersect = append(intersect, name)
		} else {
			baseOnly = append(baseOnly, name)
		}
	}
	for _, name := range compare.ColumnNames() {
		if !base.HasColumn(name) {
			compareOnly = append(compareOnly, name)
		}
	}
	return intersect, baseOnly, compareOnly
}

// columnComparisons pairs the suffixed base/compare columns of the merge
func columnComparisons(merged *join.Merged, base, compare *schema.Table) []ColumnComparison {
	compareNames := make(map[string]string)
	for _, col := range merged.Columns {
		if col.Source == join.SourceCompare {
			compareNames[col.Origin] = col.Name
		}
	}

	var cols []ColumnComparison
	for _, col := range merged.Columns {
		if col.Source != join.SourceBase || !compare.HasColumn(col.Origin) {
			continue
		}
		baseCol, _ := base.Column(col.Origin)
		compareCol, _ := compare.Column(col.Origin)
		cols = append(cols, ColumnComparison{
			Column:        col.Origin,
			BaseColumn:    col.Name,
			CompareColumn: compareNames[col.Origin],
			BaseType:      baseCol.Type,
			CompareType:   compareCol.Type,
			baseIdx:       base.ColumnIndex(col.Origin),
			compareIdx:    compare.ColumnIndex(col.Origin),
		})
	}
	return cols
}
