// Package profile computes per-column statistics for a loaded table and scores
// the columns shared by two tables as join-key candidates.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koba/table-diff/internal/schema"
)

const (
	// RecommendThreshold is the uniqueness percentage a column must exceed in both tables
	RecommendThreshold = 90.0

	sampleCount      = 2
	samplePreviewCap = 50
	noSamples        = "No samples"
)

// ColumnProfile describes a single column
type ColumnProfile struct {
	Name           string          `json:"name" yaml:"name"`
	Type           schema.DataType `json:"type" yaml:"type"`
	NonNullPercent string          `json:"non_null_percent" yaml:"non_null_percent"`
	NonNullCount   int             `json:"non_null_count" yaml:"non_null_count"`
	NullCount      int             `json:"null_count" yaml:"null_count"`
	SampleValues   string          `json:"sample_values" yaml:"sample_values"`
}

// JoinKeyCandidate scores a column present in both tables as a join key
type JoinKeyCandidate struct {
	Column            string          `json:"column" yaml:"column"`
	Type              schema.DataType `json:"type" yaml:"type"`
	UniqueBase        int             `json:"unique_base" yaml:"unique_base"`
	UniquenessBase    float64         `json:"uniqueness_base" yaml:"uniqueness_base"`
	UniqueCompare     int             `json:"unique_compare" yaml:"unique_compare"`
	UniquenessCompare float64         `json:"uniqueness_compare" yaml:"uniqueness_compare"`
	NullsBase         int             `json:"nulls_base" yaml:"nulls_base"`
	NullsCompare      int             `json:"nulls_compare" yaml:"nulls_compare"`
	Recommended       bool            `json:"recommended" yaml:"recommended"`
}

// Score is the smaller of the two uniqueness percentages
func (c JoinKeyCandidate) Score() float64 {
	if c.UniquenessBase < c.UniquenessCompare {
		return c.UniquenessBase
	}
	return c.UniquenessCompare
}

// ProfileColumns returns one profile per column in table order. A nil or
// column-less table yields an empty slice.
func ProfileColumns(t *schema.Table) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, t.ColumnCount())
	if t.ColumnCount() == 0 {
		return profiles
	}

	total := t.RowCount()
	for _, col := range t.Columns {
		values := t.Values(col.Name)
		s := columnStats(values)

		percent := 0.0
		if total > 0 {
			percent = float64(s.nonNull) / float64(total) * 100
		}

		profiles = append(profiles, ColumnProfile{
			Name:           col.Name,
			Type:           col.Type,
			NonNullPercent: fmt.Sprintf("%.1f%%", percent),
			NonNullCount:   s.nonNull,
			NullCount:      total - s.nonNull,
			SampleValues:   samplePreview(values),
		})
	}

	return profiles
}

// RecommendJoinKeys scores every column present in both tables. The result is
// ordered by the lower of the two uniqueness percentages, highest first, then
// by column name. Either table being nil yields an empty slice.
func RecommendJoinKeys(base, compare *schema.Table) []JoinKeyCandidate {
	candidates := make([]JoinKeyCandidate, 0)
	if base == nil || compare == nil {
		return candidates
	}

	for _, name := range SharedColumns(base, compare) {
		col, _ := base.Column(name)
		b := columnStats(base.Values(name))
		c := columnStats(compare.Values(name))

		candidate := JoinKeyCandidate{
			Column:            name,
			Type:              col.Type,
			UniqueBase:        b.distinct,
			UniquenessBase:    uniqueness(b.distinct, base.RowCount()),
			UniqueCompare:     c.distinct,
			UniquenessCompare: uniqueness(c.distinct, compare.RowCount()),
			NullsBase:         b.nulls,
			NullsCompare:      c.nulls,
		}
		candidate.Recommended = candidate.UniquenessBase > RecommendThreshold &&
			candidate.UniquenessCompare > RecommendThreshold &&
			candidate.NullsBase == 0 &&
			candidate.NullsCompare == 0

		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Score(), candidates[j].Score()
		if si != sj {
			return si > sj
		}
		return candidates[i].Column < candidates[j].Column
	})

	return candidates
}

// SharedColumns returns the column names present in both tables, sorted by name
func SharedColumns(base, compare *schema.Table) []string {
	var shared []string
	for _, name := range base.ColumnNames() {
		if compare.HasColumn(name) {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)
	return shared
}

type stats struct {
	nonNull  int
	nulls    int
	distinct int
}

func columnStats(values []interface{}) stats {
	var s stats
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == nil {
			s.nulls++
			continue
		}
		s.nonNull++
		seen[valueKey(v)] = struct{}{}
	}
	s.distinct = len(seen)
	return s
}

// valueKey distinguishes values by type as well as text, so "1" and 1 stay apart
func valueKey(v interface{}) string {
	return string(schema.TypeOf(v)) + ":" + schema.FormatValue(v)
}

func uniqueness(distinct, rows int) float64 {
	if rows == 0 {
		return 0
	}
	return float64(distinct) / float64(rows) * 100
}

func samplePreview(values []interface{}) string {
	samples := make([]string, 0, sampleCount)
	for _, v := range values {
		if v == nil {
			continue
		}
		samples = append(samples, schema.FormatValue(v))
		if len(samples) == sampleCount {
			break
		}
	}
	if len(samples) == 0 {
		return noSamples
	}

	preview := "[" + strings.Join(samples, ", ") + "]"
	if runes := []rune(preview); len(runes) > samplePreviewCap {
		preview = string(runes[:samplePreviewCap]) + "..."
	}
	return preview
}
