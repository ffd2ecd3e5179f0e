package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/table-diff/internal/join"
	"github.com/koba/table-diff/internal/profile"
	"github.com/koba/table-diff/internal/schema"
)

func mustText(t *testing.T, headers []string, records ...[]string) *schema.Table {
	t.Helper()
	table, err := schema.FromText("t", headers, records)
	require.NoError(t, err)
	return table
}

func scenarioTables(t *testing.T) (*schema.Table, *schema.Table) {
	base := mustText(t, []string{"id", "name", "value"},
		[]string{"1", "John", "100"},
		[]string{"2", "Jane", "200"},
		[]string{"3", "Bob", "300"},
	)
	compare := mustText(t, []string{"id", "name", "value"},
		[]string{"1", "John", "100"},
		[]string{"2", "Jane", "250"},
		[]string{"4", "Alice", "400"},
	)
	return base, compare
}

func TestCompare_Scenario(t *testing.T) {
	base, compare := scenarioTables(t)

	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "value"}, result.IntersectColumns)
	assert.Empty(t, result.BaseOnlyColumns)
	assert.Empty(t, result.CompareOnlyColumns)
	assert.Len(t, result.CommonRows, 2)
	assert.Equal(t, []schema.Row{{int64(3), "Bob", int64(300)}}, result.BaseOnlyRows)
	assert.Equal(t, []schema.Row{{int64(4), "Alice", int64(400)}}, result.CompareOnlyRows)

	assert.Equal(t, 1, result.CountMatchingRows())
	assert.True(t, result.AllColumnsMatch())
	assert.False(t, result.AllRowsOverlap())
	assert.False(t, result.MatchesExactly())

	mismatched := result.MismatchedRows()
	require.Len(t, mismatched, 1)
	assert.Equal(t, []string{"value"}, mismatched[0].Mismatched)

	cols := result.ColumnMismatches()
	require.Len(t, cols, 1)
	assert.Equal(t, "value", cols[0].Column)
	assert.Equal(t, "value_base", cols[0].BaseColumn)
	assert.Equal(t, "value_compare", cols[0].CompareColumn)
	assert.Equal(t, 1, cols[0].MismatchCount)
	assert.Equal(t, 1, cols[0].MatchCount)
	assert.InDelta(t, 50.0, cols[0].MaxDiff, 1e-9)

	stats, err := ComputeStats(result)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RowsInCommon)
	assert.Equal(t, 1, stats.UnmatchedBase)
	assert.Equal(t, 1, stats.UnmatchedCompare)
	assert.Equal(t, 3, stats.TotalBase)
	assert.Equal(t, 3, stats.TotalCompare)
	assert.InDelta(t, 66.7, stats.MatchRate, 0.05)
}

func TestCompare_NilTables(t *testing.T) {
	base, _ := scenarioTables(t)

	result, err := Compare(nil, base, []string{"id"}, Options{})
	assert.NoError(t, err)
	assert.Nil(t, result)

	stats, err := ComputeStats(nil)
	assert.NoError(t, err)
	assert.Nil(t, stats)
}

func TestCompare_JoinErrors(t *testing.T) {
	base, compare := scenarioTables(t)

	_, err := Compare(base, compare, nil, Options{})
	assert.ErrorIs(t, err, join.ErrNoJoinKeys)

	strIDs := mustText(t, []string{"id"}, []string{"a"})
	_, err = Compare(base, strIDs, []string{"id"}, Options{})
	assert.ErrorIs(t, err, join.ErrIncompatibleKeys)
}

func TestCompare_Idempotent(t *testing.T) {
	base, compare := scenarioTables(t)

	first, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)
	second, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)

	s1, err := ComputeStats(first)
	require.NoError(t, err)
	s2, err := ComputeStats(second)
	require.NoError(t, err)

	s1.Merged, s2.Merged = nil, nil
	assert.Equal(t, s1, s2)
}

func TestCompare_StatsAgreeWithPartitions(t *testing.T) {
	base := mustText(t, []string{"id", "v"},
		[]string{"1", "a"}, []string{"1", "b"}, []string{"2", "c"},
	)
	compare := mustText(t, []string{"id", "v"},
		[]string{"1", "a"}, []string{"1", "x"}, []string{"1", "y"}, []string{"3", "z"},
	)

	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)
	stats, err := ComputeStats(result)
	require.NoError(t, err)

	assert.Equal(t, len(result.CommonRows), stats.RowsInCommon)
	assert.Equal(t, len(result.BaseOnlyRows), stats.UnmatchedBase)
	assert.Equal(t, len(result.CompareOnlyRows), stats.UnmatchedCompare)

	// duplicate keys amplify: 2 base x 3 compare rows for id 1
	assert.Equal(t, 6, stats.RowsInCommon)
	assert.NotEqual(t, stats.TotalBase, stats.RowsInCommon+stats.UnmatchedBase)
	assert.LessOrEqual(t, stats.MatchRate, 100.0)
}

func TestComputeStats_EmptyBase(t *testing.T) {
	base := mustText(t, []string{"id"})
	compare := mustText(t, []string{"id"}, []string{"1"})

	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)
	stats, err := ComputeStats(result)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalBase)
	assert.Zero(t, stats.MatchRate)
	assert.Equal(t, 1, stats.UnmatchedCompare)
}

func TestCompare_ColumnSets(t *testing.T) {
	base := mustText(t, []string{"id", "a", "shared"}, []string{"1", "x", "s"})
	compare := mustText(t, []string{"shared", "id", "b"}, []string{"s", "1", "y"})

	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "shared"}, result.IntersectColumns)
	assert.Equal(t, []string{"a"}, result.BaseOnlyColumns)
	assert.Equal(t, []string{"b"}, result.CompareOnlyColumns)
	require.Len(t, result.Columns, 1)
	assert.Equal(t, "shared", result.Columns[0].Column)
	assert.False(t, result.AllColumnsMatch())
	assert.Equal(t, 1, result.CountMatchingRows())
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		opts Options
		want bool
	}{
		{"nulls", nil, nil, Options{}, true},
		{"null vs value", nil, int64(1), Options{}, false},
		{"int vs float", int64(1), 1.0, Options{}, true},
		{"float diff", 1.0, 1.05, Options{}, false},
		{"abs tolerance", 1.0, 1.05, Options{AbsTolerance: 0.1}, true},
		{"rel tolerance", 100.0, 101.0, Options{RelTolerance: 0.02}, true},
		{"rel tolerance exceeded", 100.0, 105.0, Options{RelTolerance: 0.02}, false},
		{"number vs string", int64(1), "1", Options{}, false},
		{"strings", "a", "a", Options{}, true},
		{"spaces", " a ", "a", Options{}, false},
		{"ignore spaces", " a ", "a", Options{IgnoreSpaces: true}, true},
		{"ignore case", "ABC", "abc", Options{IgnoreCase: true}, true},
		{"bools", true, true, Options{}, true},
		{"bool vs string", true, "true", Options{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.a, tt.b, tt.opts))
		})
	}
}

func TestCompare_Tolerance(t *testing.T) {
	base := mustText(t, []string{"id", "amount"}, []string{"1", "10.00"}, []string{"2", "20.00"})
	compare := mustText(t, []string{"id", "amount"}, []string{"1", "10.001"}, []string{"2", "21"})

	exact, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, exact.CountMatchingRows())

	loose, err := Compare(base, compare, []string{"id"}, Options{AbsTolerance: 0.01})
	require.NoError(t, err)
	assert.Equal(t, 1, loose.CountMatchingRows())
}

func TestCompare_NullDiff(t *testing.T) {
	base := mustText(t, []string{"id", "v"}, []string{"1", ""}, []string{"2", ""})
	compare := mustText(t, []string{"id", "v"}, []string{"1", ""}, []string{"2", "x"})

	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)

	require.Len(t, result.Columns, 1)
	assert.Equal(t, 1, result.Columns[0].NullDiff)
	assert.Equal(t, 1, result.Columns[0].MatchCount)
	assert.Equal(t, 1, result.Columns[0].MismatchCount)
}

func TestSampleMismatch(t *testing.T) {
	base, compare := scenarioTables(t)
	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)

	sample := result.SampleMismatch(5)
	assert.Equal(t, []string{"id", "value_base", "value_compare"}, sample.ColumnNames())
	assert.Equal(t, []schema.Row{{int64(2), int64(200), int64(250)}}, sample.Rows)

	assert.Len(t, result.SampleMismatch(0).Rows, 1)
}

func TestColumnDistribution(t *testing.T) {
	base := mustText(t, []string{"id", "color"},
		[]string{"1", "red"}, []string{"2", "red"}, []string{"3", "blue"},
		[]string{"4", "green"}, []string{"5", "pink"}, []string{"6", "gray"}, []string{"7", "teal"},
	)
	compare := mustText(t, []string{"id", "color"}, []string{"1", "blue"}, []string{"2", "blue"})

	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)

	b, c, err := ColumnDistribution(result, "color")
	require.NoError(t, err)
	require.Len(t, b, DistributionSize)
	assert.Equal(t, profile.ValueCount{Value: "red", Count: 2}, b[0])
	assert.Equal(t, []profile.ValueCount{{Value: "blue", Count: 2}}, c)

	_, _, err = ColumnDistribution(result, "id")
	assert.ErrorIs(t, err, ErrNotComparable)

	_, _, err = ColumnDistribution(result, "missing")
	assert.ErrorIs(t, err, ErrNotComparable)
}

func TestReport(t *testing.T) {
	base, compare := scenarioTables(t)
	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)
	stats, err := ComputeStats(result)
	require.NoError(t, err)

	report := Report(result, stats)
	assert.Contains(t, report, "Number of rows in common: 2")
	assert.Contains(t, report, "Number of rows in Base but not in Compare: 1")
	assert.Contains(t, report, "Number of rows with all compared columns equal: 1")
	assert.Contains(t, report, "Match rate: 66.7%")
	assert.Contains(t, report, "Sample Rows with Unequal Values")
	assert.Contains(t, report, "Alice")

	assert.Contains(t, Report(nil, nil), "No comparison")
}

func TestDisplay(t *testing.T) {
	base, compare := scenarioTables(t)
	result, err := Compare(base, compare, []string{"id"}, Options{})
	require.NoError(t, err)
	stats, err := ComputeStats(result)
	require.NoError(t, err)

	var buf bytes.Buffer
	Display(&buf, result, stats)
	out := buf.String()
	assert.Contains(t, out, "Match rate: 66.7%")
	assert.Contains(t, out, "- value: 1 unequal")
	assert.Contains(t, out, "Rows Only in Compare")
	assert.NotContains(t, out, "No differences found.")

	buf.Reset()
	same, err := Compare(base, base, []string{"id"}, Options{})
	require.NoError(t, err)
	Display(&buf, same, nil)
	assert.Contains(t, buf.String(), "No differences found.")
}
