package diff

import (
	"errors"
	"fmt"

	"github.com/koba/table-diff/internal/join"
	"github.com/koba/table-diff/internal/profile"
)

// DistributionSize is the number of values ColumnDistribution returns per table
const DistributionSize = 5

// ErrNotComparable is returned for a column that is a join key or is missing from either table
var ErrNotComparable = errors.New("column is not a compared column")

// Stats holds aggregate row counts over the outer join of a comparison
type Stats struct {
	RowsInCommon     int     `json:"rows_in_common" yaml:"rows_in_common"`
	UnmatchedBase    int     `json:"unmatched_base" yaml:"unmatched_base"`
	UnmatchedCompare int     `json:"unmatched_compare" yaml:"unmatched_compare"`
	MatchRate        float64 `json:"match_rate" yaml:"match_rate"`
	TotalBase        int     `json:"total_base" yaml:"total_base"`
	TotalCompare     int     `json:"total_compare" yaml:"total_compare"`

	// Merged is the outer join the counts were taken from
	Merged *join.Merged `json:"-" yaml:"-"`
}

// ComputeStats joins the result's tables again on its keys and counts the
// rows per provenance. A nil result yields nil stats.
func ComputeStats(r *Result) (*Stats, error) {
	if r == nil {
		return nil, nil
	}

	merged, err := join.OuterJoin(r.Base, r.Compare, r.JoinKeys)
	if err != nil {
		return nil, fmt.Errorf("outer join failed: %w", err)
	}

	counts := merged.Counts()
	stats := &Stats{
		RowsInCommon:     counts.Both,
		UnmatchedBase:    counts.LeftOnly,
		UnmatchedCompare: counts.RightOnly,
		TotalBase:        r.Base.RowCount(),
		TotalCompare:     r.Compare.RowCount(),
		Merged:           merged,
	}
	if stats.TotalBase > 0 {
		stats.MatchRate = float64(stats.RowsInCommon) / float64(stats.TotalBase) * 100
	}
	// duplicate keys can produce more common rows than base rows
	if stats.MatchRate > 100 {
		stats.MatchRate = 100
	}

	return stats, nil
}

// ColumnDistribution returns the most frequent values of a compared column,
// counted separately in each table
func ColumnDistribution(r *Result, column string) (base, compare []profile.ValueCount, err error) {
	if r == nil {
		return nil, nil, fmt.Errorf("%w: no comparison", ErrNotComparable)
	}
	for _, key := range r.JoinKeys {
		if key == column {
			return nil, nil, fmt.Errorf("%w: %q is a join key", ErrNotComparable, column)
		}
	}
	if !r.Base.HasColumn(column) || !r.Compare.HasColumn(column) {
		return nil, nil, fmt.Errorf("%w: %q is not in both tables", ErrNotComparable, column)
	}

	return profile.ValueCounts(r.Base, column, DistributionSize),
		profile.ValueCounts(r.Compare, column, DistributionSize),
		nil
}
