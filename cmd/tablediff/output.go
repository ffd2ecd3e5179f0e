package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/profile"
	"github.com/koba/table-diff/internal/schema"
)

// comparisonOutput is the structured form of a comparison
type comparisonOutput struct {
	JoinKeys           []string                 `json:"join_keys" yaml:"join_keys"`
	MatchesExactly     bool                     `json:"matches_exactly" yaml:"matches_exactly"`
	Stats              *diff.Stats              `json:"stats" yaml:"stats"`
	BaseOnlyColumns    []string                 `json:"base_only_columns" yaml:"base_only_columns"`
	CompareOnlyColumns []string                 `json:"compare_only_columns" yaml:"compare_only_columns"`
	Columns            []diff.ColumnComparison  `json:"columns" yaml:"columns"`
	SampleMismatches   []map[string]interface{} `json:"sample_mismatches" yaml:"sample_mismatches"`
	BaseOnlyRows       []map[string]interface{} `json:"base_only_rows" yaml:"base_only_rows"`
	CompareOnlyRows    []map[string]interface{} `json:"compare_only_rows" yaml:"compare_only_rows"`
	Distribution       *distributionOutput      `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

type distributionOutput struct {
	Column  string               `json:"column" yaml:"column"`
	Base    []profile.ValueCount `json:"base" yaml:"base"`
	Compare []profile.ValueCount `json:"compare" yaml:"compare"`
}

func newComparisonOutput(r *diff.Result, stats *diff.Stats, sampleSize int) comparisonOutput {
	return comparisonOutput{
		JoinKeys:           r.JoinKeys,
		MatchesExactly:     r.MatchesExactly(),
		Stats:              stats,
		BaseOnlyColumns:    r.BaseOnlyColumns,
		CompareOnlyColumns: r.CompareOnlyColumns,
		Columns:            r.Columns,
		SampleMismatches:   rowMaps(r.SampleMismatch(sampleSize), 0),
		BaseOnlyRows:       rowMaps(r.UniqueRows(true), sampleSize),
		CompareOnlyRows:    rowMaps(r.UniqueRows(false), sampleSize),
	}
}

// rowMaps converts up to limit rows of t to maps. limit <= 0 converts every row.
func rowMaps(t *schema.Table, limit int) []map[string]interface{} {
	n := t.RowCount()
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rows[i] = t.RowMap(i)
	}
	return rows
}

// writeStructured writes v as JSON or YAML according to --format
func writeStructured(w io.Writer, v interface{}) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format: %s", outputFormat)
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}
