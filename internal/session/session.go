// Package session holds one pair of tables and the last comparison made
// between them. A Session is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/loader"
	"github.com/koba/table-diff/internal/profile"
	"github.com/koba/table-diff/internal/schema"
)

var (
	// ErrNotLoaded is returned when an operation needs both tables and they are not loaded
	ErrNotLoaded = errors.New("both tables must be loaded first")

	// ErrNoJoinKeys is returned when Compare is called without join keys
	ErrNoJoinKeys = errors.New("at least one join key is required")

	// ErrInvalidJoinKey is returned when a join key is not a column of both tables
	ErrInvalidJoinKey = errors.New("join key is not a column of both tables")

	// ErrNoComparison is returned when an operation needs a comparison result and none exists
	ErrNoComparison = errors.New("no comparison has been performed")
)

// Session compares a base table against a compare table
type Session struct {
	logger  *zap.Logger
	options diff.Options

	base    *schema.Table
	compare *schema.Table
	result  *diff.Result
}

// New creates an empty session. A nil logger discards log output.
func New(logger *zap.Logger, opts diff.Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{logger: logger, options: opts}
}

// FileOptions returns the pre-read metadata of a file, such as its sheet list
func (s *Session) FileOptions(f loader.File) (loader.Options, error) {
	opts, err := loader.FileOptions(f)
	if err != nil {
		s.logger.Error("Failed to read file options",
			zap.String("file", f.Name),
			zap.Error(err))
		return loader.Options{}, err
	}
	return opts, nil
}

// Load reads both files. On failure neither table is kept and the message
// names the file that could not be read. Any previous result is discarded.
func (s *Session) Load(base, compare loader.File, baseOpts, compareOpts loader.ReadOptions) (bool, string) {
	s.base, s.compare, s.result = nil, nil, nil

	baseTable, err := s.loadFile(base, baseOpts)
	if err != nil {
		return false, fmt.Sprintf("failed to load base file %s: %v", base.Name, err)
	}

	compareTable, err := s.loadFile(compare, compareOpts)
	if err != nil {
		return false, fmt.Sprintf("failed to load compare file %s: %v", compare.Name, err)
	}

	s.base, s.compare = baseTable, compareTable
	s.logger.Info("Loaded tables",
		zap.String("base", base.Name),
		zap.Int("base_rows", baseTable.RowCount()),
		zap.String("compare", compare.Name),
		zap.Int("compare_rows", compareTable.RowCount()))
	return true, ""
}

func (s *Session) loadFile(f loader.File, opts loader.ReadOptions) (*schema.Table, error) {
	t, err := loader.Load(f, opts)
	if err != nil {
		s.logger.Error("Failed to load file",
			zap.String("file", f.Name),
			zap.String("sheet", opts.Sheet),
			zap.Error(err))
		return nil, err
	}
	return t, nil
}

// SetTables replaces both tables, for sources that are not files
func (s *Session) SetTables(base, compare *schema.Table) {
	s.base, s.compare, s.result = base, compare, nil
}

// BaseTable returns the loaded base table, or nil
func (s *Session) BaseTable() *schema.Table {
	return s.base
}

// CompareTable returns the loaded compare table, or nil
func (s *Session) CompareTable() *schema.Table {
	return s.compare
}

// Result returns the last successful comparison, or nil
func (s *Session) Result() *diff.Result {
	return s.result
}

// Profile describes the columns of t
func (s *Session) Profile(t *schema.Table) []profile.ColumnProfile {
	return profile.ProfileColumns(t)
}

// RecommendKeys scores the shared columns of the loaded tables as join keys
func (s *Session) RecommendKeys() []profile.JoinKeyCandidate {
	return profile.RecommendJoinKeys(s.base, s.compare)
}

// Compare compares the loaded tables on keys. On failure the previous result is kept.
func (s *Session) Compare(keys []string) (*diff.Result, error) {
	if s.base == nil || s.compare == nil {
		return nil, s.fail(ErrNotLoaded, keys)
	}
	if len(keys) == 0 {
		return nil, s.fail(ErrNoJoinKeys, keys)
	}
	for _, key := range keys {
		if !s.base.HasColumn(key) || !s.compare.HasColumn(key) {
			return nil, s.fail(fmt.Errorf("%w: %q", ErrInvalidJoinKey, key), keys)
		}
	}

	result, err := diff.Compare(s.base, s.compare, keys, s.options)
	if err != nil {
		return nil, s.fail(fmt.Errorf("comparison failed: %w", err), keys)
	}

	s.result = result
	s.logger.Info("Compared tables",
		zap.Strings("keys", keys),
		zap.Int("common_rows", len(result.CommonRows)),
		zap.Int("base_only_rows", len(result.BaseOnlyRows)),
		zap.Int("compare_only_rows", len(result.CompareOnlyRows)))
	return result, nil
}

func (s *Session) fail(err error, keys []string) error {
	s.logger.Error("Comparison failed",
		zap.String("operation", "compare"),
		zap.Strings("keys", keys),
		zap.Error(err))
	return err
}

// Stats returns aggregate counts for the last comparison, or nil when no
// comparison has been made
func (s *Session) Stats() *diff.Stats {
	stats, err := diff.ComputeStats(s.result)
	if err != nil {
		s.logger.Error("Failed to compute comparison stats",
			zap.String("operation", "stats"),
			zap.Strings("keys", s.result.JoinKeys),
			zap.Error(err))
		return nil
	}
	return stats
}

// ColumnDistribution returns the most frequent values of a compared column in each table
func (s *Session) ColumnDistribution(column string) (base, compare []profile.ValueCount, err error) {
	if s.result == nil {
		return nil, nil, ErrNoComparison
	}
	return diff.ColumnDistribution(s.result, column)
}
