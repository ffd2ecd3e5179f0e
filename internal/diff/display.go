package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// Display prints the comparison overview in a human-readable format
func Display(w io.Writer, r *Result, stats *Stats) {
	if r == nil {
		fmt.Fprintln(w, "No comparison has been performed.")
		return
	}

	if r.MatchesExactly() {
		fmt.Fprintln(w, "No differences found.")
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Comparison Overview ===")
	fmt.Fprintln(w)
	if stats != nil {
		fmt.Fprintf(w, "  Match rate: %.1f%%\n", stats.MatchRate)
	}
	fmt.Fprintf(w, "  Matching rows: %s\n", humanize.Comma(int64(r.CountMatchingRows())))
	fmt.Fprintf(w, "  Matching columns: %s\n", humanize.Comma(int64(len(r.IntersectColumns))))
	fmt.Fprintf(w, "  Join keys: %s\n", strings.Join(r.JoinKeys, ", "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Column Matches ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Common columns: %d\n", len(r.IntersectColumns))
	fmt.Fprintf(w, "  Only in base: %d\n", len(r.BaseOnlyColumns))
	fmt.Fprintf(w, "  Only in compare: %d\n", len(r.CompareOnlyColumns))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Row Matches ===")
	fmt.Fprintln(w)
	if stats != nil {
		fmt.Fprintf(w, "  Rows in common: %s\n", humanize.Comma(int64(stats.RowsInCommon)))
		fmt.Fprintf(w, "  Only in base: %s\n", humanize.Comma(int64(stats.UnmatchedBase)))
		fmt.Fprintf(w, "  Only in compare: %s\n", humanize.Comma(int64(stats.UnmatchedCompare)))
		fmt.Fprintf(w, "  Total base: %s\n", humanize.Comma(int64(stats.TotalBase)))
		fmt.Fprintf(w, "  Total compare: %s\n", humanize.Comma(int64(stats.TotalCompare)))
	} else {
		fmt.Fprintf(w, "  Rows in common: %s\n", humanize.Comma(int64(len(r.CommonRows))))
		fmt.Fprintf(w, "  Only in base: %s\n", humanize.Comma(int64(len(r.BaseOnlyRows))))
		fmt.Fprintf(w, "  Only in compare: %s\n", humanize.Comma(int64(len(r.CompareOnlyRows))))
	}
	fmt.Fprintln(w)

	if mismatches := r.ColumnMismatches(); len(mismatches) > 0 {
		fmt.Fprintln(w, "=== Column Mismatches ===")
		fmt.Fprintln(w)
		for _, col := range mismatches {
			fmt.Fprintf(w, "  - %s: %s unequal\n", col.Column, humanize.Comma(int64(col.MismatchCount)))
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "=== Sample Mismatches ===")
		fmt.Fprintln(w)
		writeTable(w, r.SampleMismatch(ReportSampleSize), ReportSampleSize)
		fmt.Fprintln(w)
	}

	for _, side := range []struct {
		title string
		base  bool
		count int
	}{
		{"Rows Only in Base", true, len(r.BaseOnlyRows)},
		{"Rows Only in Compare", false, len(r.CompareOnlyRows)},
	} {
		if side.count == 0 {
			continue
		}
		fmt.Fprintf(w, "=== %s ===\n", side.title)
		fmt.Fprintln(w)
		writeTable(w, r.UniqueRows(side.base), ReportSampleSize)
		fmt.Fprintln(w)
	}
}
