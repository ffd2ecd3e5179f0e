package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/join"
	"github.com/koba/table-diff/internal/loader"
)

var (
	baseCSV = loader.File{Name: "base.csv", Data: []byte("id,name,value\n1,John,100\n2,Jane,200\n3,Bob,300\n")}
	compCSV = loader.File{Name: "compare.csv", Data: []byte("id,name,value\n1,John,100\n2,Jane,250\n4,Alice,400\n")}
)

func newObserved() (*Session, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core), diff.Options{}), logs
}

func TestSession_LoadAndCompare(t *testing.T) {
	s, logs := newObserved()

	assert.Nil(t, s.Stats(), "no stats before a comparison")

	ok, msg := s.Load(baseCSV, compCSV, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok, msg)
	assert.Empty(t, msg)
	assert.Equal(t, 3, s.BaseTable().RowCount())
	assert.Equal(t, 3, s.CompareTable().RowCount())
	assert.Len(t, s.Profile(s.BaseTable()), 3)

	candidates := s.RecommendKeys()
	require.NotEmpty(t, candidates)
	assert.Equal(t, "id", candidates[0].Column)

	result, err := s.Compare([]string{"id"})
	require.NoError(t, err)
	assert.Same(t, result, s.Result())

	stats := s.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.RowsInCommon)
	assert.Equal(t, 1, stats.UnmatchedBase)
	assert.Equal(t, 1, stats.UnmatchedCompare)
	assert.InDelta(t, 66.7, stats.MatchRate, 0.05)

	base, compare, err := s.ColumnDistribution("name")
	require.NoError(t, err)
	assert.Len(t, base, 3)
	assert.Len(t, compare, 3)

	assert.Equal(t, 2, logs.FilterMessage("Loaded tables").Len()+logs.FilterMessage("Compared tables").Len())
}

func TestSession_LoadFailure(t *testing.T) {
	s, logs := newObserved()

	ok, _ := s.Load(baseCSV, compCSV, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok)
	_, err := s.Compare([]string{"id"})
	require.NoError(t, err)

	malformed := loader.File{Name: "broken.csv", Data: []byte("a,b\n1,2\n3,4,5\n")}
	ok, msg := s.Load(baseCSV, malformed, loader.ReadOptions{}, loader.ReadOptions{})
	assert.False(t, ok)
	assert.Contains(t, msg, "broken.csv")
	assert.Nil(t, s.BaseTable())
	assert.Nil(t, s.CompareTable())
	assert.Nil(t, s.Result())
	assert.Nil(t, s.Stats())

	entries := logs.FilterMessage("Failed to load file").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken.csv", entries[0].ContextMap()["file"])

	ok, msg = s.Load(loader.File{Name: "notes.txt"}, compCSV, loader.ReadOptions{}, loader.ReadOptions{})
	assert.False(t, ok)
	assert.Contains(t, msg, "unsupported file type")
}

func TestSession_ComparePreconditions(t *testing.T) {
	s, _ := newObserved()

	_, err := s.Compare([]string{"id"})
	assert.ErrorIs(t, err, ErrNotLoaded)

	ok, _ := s.Load(baseCSV, compCSV, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok)

	_, err = s.Compare(nil)
	assert.ErrorIs(t, err, ErrNoJoinKeys)

	_, err = s.Compare([]string{"missing"})
	assert.ErrorIs(t, err, ErrInvalidJoinKey)

	_, _, err = s.ColumnDistribution("name")
	assert.ErrorIs(t, err, ErrNoComparison)
}

func TestSession_ZeroSharedColumns(t *testing.T) {
	s, logs := newObserved()

	a := loader.File{Name: "a.csv", Data: []byte("x\n1\n")}
	b := loader.File{Name: "b.json", Data: []byte(`{"fruit":"Apple","size":"Large"}`)}
	ok, msg := s.Load(a, b, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok, msg)

	assert.Empty(t, s.RecommendKeys())

	_, err := s.Compare([]string{"x"})
	assert.ErrorIs(t, err, ErrInvalidJoinKey)
	assert.Equal(t, 1, logs.FilterMessage("Comparison failed").Len())
}

func TestSession_FailedCompareKeepsPreviousResult(t *testing.T) {
	s, _ := newObserved()
	ok, _ := s.Load(baseCSV, compCSV, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok)

	first, err := s.Compare([]string{"id"})
	require.NoError(t, err)

	_, err = s.Compare([]string{"nope"})
	require.Error(t, err)
	assert.Same(t, first, s.Result())
}

func TestSession_JoinErrorPropagates(t *testing.T) {
	s, _ := newObserved()
	strIDs := loader.File{Name: "s.csv", Data: []byte("id,name\nabc,John\n")}
	ok, _ := s.Load(baseCSV, strIDs, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok)

	_, err := s.Compare([]string{"id"})
	assert.ErrorIs(t, err, join.ErrIncompatibleKeys)
	assert.Nil(t, s.Result())
}

func TestSession_FileOptions(t *testing.T) {
	s, logs := newObserved()

	opts, err := s.FileOptions(baseCSV)
	require.NoError(t, err)
	assert.Empty(t, opts.Sheets)

	_, err = s.FileOptions(loader.File{Name: "x.unknown"})
	assert.ErrorIs(t, err, loader.ErrUnsupportedFileType)
	assert.Equal(t, 1, logs.FilterMessage("Failed to read file options").Len())
}

func TestSession_SetTables(t *testing.T) {
	s, _ := newObserved()
	ok, _ := s.Load(baseCSV, compCSV, loader.ReadOptions{}, loader.ReadOptions{})
	require.True(t, ok)
	base, compare := s.BaseTable(), s.CompareTable()

	other := New(nil, diff.Options{})
	other.SetTables(base, compare)
	result, err := other.Compare([]string{"id"})
	require.NoError(t, err)
	assert.Len(t, result.CommonRows, 2)
}
