package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/schema"
)

func scenarioResult(t *testing.T) (*diff.Result, *diff.Stats) {
	t.Helper()
	base, err := schema.FromText("base.csv", []string{"id", "name", "value"}, [][]string{
		{"1", "John", "100"}, {"2", "Jane", "200"}, {"3", "Bob", "300"},
	})
	require.NoError(t, err)
	compare, err := schema.FromText("compare.csv", []string{"id", "name", "value"}, [][]string{
		{"1", "John", "100"}, {"2", "Jane", "250"}, {"4", "Alice", "400"},
	})
	require.NoError(t, err)

	result, err := diff.Compare(base, compare, []string{"id"}, diff.Options{AbsTolerance: 0.5})
	require.NoError(t, err)
	stats, err := diff.ComputeStats(result)
	require.NoError(t, err)
	return result, stats
}

func TestSaveAndLoad(t *testing.T) {
	result, stats := scenarioResult(t)
	path := filepath.Join(t.TempDir(), "reports", "report.db")

	id, err := Save(path, result, stats)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	report, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, id, report.ID)
	assert.False(t, report.CreatedAt.IsZero())
	assert.Equal(t, []string{"id"}, report.JoinKeys)
	assert.Equal(t, "base.csv", report.BaseName)
	assert.Equal(t, "compare.csv", report.CompareName)
	assert.InDelta(t, 0.5, report.Options.AbsTolerance, 1e-12)

	require.NotNil(t, report.Stats)
	assert.Equal(t, 2, report.Stats.RowsInCommon)
	assert.Equal(t, 1, report.Stats.UnmatchedBase)
	assert.Equal(t, 1, report.Stats.UnmatchedCompare)
	assert.InDelta(t, stats.MatchRate, report.Stats.MatchRate, 1e-9)

	require.Len(t, report.Columns, 2)
	assert.Equal(t, "name", report.Columns[0].Column)
	assert.Equal(t, "value", report.Columns[1].Column)
	assert.Equal(t, schema.TypeInt, report.Columns[1].BaseType)
	assert.Equal(t, 1, report.Columns[1].MismatchCount)

	require.Len(t, report.BaseOnlyRows, 1)
	assert.Equal(t, "Bob", report.BaseOnlyRows[0]["name"])
	require.Len(t, report.CompareOnlyRows, 1)
	assert.Equal(t, "Alice", report.CompareOnlyRows[0]["name"])

	require.Len(t, report.Mismatches, 1)
	m := report.Mismatches[0]
	assert.Equal(t, []interface{}{2.0}, m.Key)
	assert.Equal(t, "value", m.Column)
	assert.Equal(t, 200.0, m.Base)
	assert.Equal(t, 250.0, m.Compare)
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	result, stats := scenarioResult(t)
	path := filepath.Join(t.TempDir(), "report.db")

	first, err := Save(path, result, stats)
	require.NoError(t, err)
	second, err := Save(path, result, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	report, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, second, report.ID)
	assert.Nil(t, report.Stats)
}

func TestSave_NilResult(t *testing.T) {
	_, err := Save(filepath.Join(t.TempDir(), "r.db"), nil, nil)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
