package diff

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/koba/table-diff/internal/schema"
)

// ReportSampleSize is the number of rows shown per sample section of Report
const ReportSampleSize = 10

// Report renders the comparison as plain text. stats may be nil.
func Report(r *Result, stats *Stats) string {
	if r == nil {
		return "No comparison has been performed.\n"
	}

	var b strings.Builder

	section(&b, "Table Summary")
	tw := newTabWriter(&b)
	fmt.Fprintln(tw, "  Table\tColumns\tRows")
	fmt.Fprintf(tw, "  %s\t%d\t%s\n", tableLabel(r.Base, "base"), r.Base.ColumnCount(), humanize.Comma(int64(r.Base.RowCount())))
	fmt.Fprintf(tw, "  %s\t%d\t%s\n", tableLabel(r.Compare, "compare"), r.Compare.ColumnCount(), humanize.Comma(int64(r.Compare.RowCount())))
	tw.Flush()

	section(&b, "Column Summary")
	fmt.Fprintf(&b, "Number of columns in common: %d\n", len(r.IntersectColumns))
	fmt.Fprintf(&b, "Number of columns in Base but not in Compare: %d\n", len(r.BaseOnlyColumns))
	fmt.Fprintf(&b, "Number of columns in Compare but not in Base: %d\n", len(r.CompareOnlyColumns))
	if len(r.BaseOnlyColumns) > 0 {
		fmt.Fprintf(&b, "Columns only in Base: %s\n", strings.Join(r.BaseOnlyColumns, ", "))
	}
	if len(r.CompareOnlyColumns) > 0 {
		fmt.Fprintf(&b, "Columns only in Compare: %s\n", strings.Join(r.CompareOnlyColumns, ", "))
	}

	section(&b, "Row Summary")
	fmt.Fprintf(&b, "Matched on: %s\n", strings.Join(r.JoinKeys, ", "))
	fmt.Fprintf(&b, "Absolute Tolerance: %g\n", r.Options.AbsTolerance)
	fmt.Fprintf(&b, "Relative Tolerance: %g\n", r.Options.RelTolerance)
	fmt.Fprintf(&b, "Number of rows in common: %s\n", humanize.Comma(int64(len(r.CommonRows))))
	fmt.Fprintf(&b, "Number of rows in Base but not in Compare: %s\n", humanize.Comma(int64(len(r.BaseOnlyRows))))
	fmt.Fprintf(&b, "Number of rows in Compare but not in Base: %s\n", humanize.Comma(int64(len(r.CompareOnlyRows))))
	matching := r.CountMatchingRows()
	fmt.Fprintf(&b, "Number of rows with some compared columns unequal: %s\n", humanize.Comma(int64(len(r.CommonRows)-matching)))
	fmt.Fprintf(&b, "Number of rows with all compared columns equal: %s\n", humanize.Comma(int64(matching)))
	if stats != nil {
		fmt.Fprintf(&b, "Match rate: %.1f%%\n", stats.MatchRate)
	}

	section(&b, "Column Comparison")
	mismatches := r.ColumnMismatches()
	unequal := 0
	for _, col := range mismatches {
		unequal += col.MismatchCount
	}
	fmt.Fprintf(&b, "Number of columns compared with some values unequal: %d\n", len(mismatches))
	fmt.Fprintf(&b, "Number of columns compared with all values equal: %d\n", len(r.Columns)-len(mismatches))
	fmt.Fprintf(&b, "Total number of values which compare unequal: %s\n", humanize.Comma(int64(unequal)))

	var flagged []ColumnComparison
	for _, col := range r.Columns {
		if col.MismatchCount > 0 || !col.TypesMatch() {
			flagged = append(flagged, col)
		}
	}
	if len(flagged) > 0 {
		section(&b, "Columns with Unequal Values or Types")
		tw = newTabWriter(&b)
		fmt.Fprintln(tw, "  Column\tBase dtype\tCompare dtype\t# Unequal\tMax Diff\t# Null Diff")
		for _, col := range flagged {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%g\t%d\n",
				col.Column, col.BaseType, col.CompareType, col.MismatchCount, col.MaxDiff, col.NullDiff)
		}
		tw.Flush()
	}

	if len(mismatches) > 0 {
		section(&b, "Sample Rows with Unequal Values")
		writeTable(&b, r.SampleMismatch(ReportSampleSize), ReportSampleSize)
	}
	if len(r.BaseOnlyRows) > 0 {
		section(&b, "Sample Rows Only in Base")
		writeTable(&b, r.UniqueRows(true), ReportSampleSize)
	}
	if len(r.CompareOnlyRows) > 0 {
		section(&b, "Sample Rows Only in Compare")
		writeTable(&b, r.UniqueRows(false), ReportSampleSize)
	}

	return b.String()
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func tableLabel(t *schema.Table, fallback string) string {
	if t.Name == "" {
		return fallback
	}
	return fallback + " (" + t.Name + ")"
}

// writeTable prints up to limit rows of t with aligned columns. limit <= 0 prints every row.
func writeTable(w io.Writer, t *schema.Table, limit int) {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "  "+strings.Join(t.ColumnNames(), "\t"))
	for i, row := range t.Rows {
		if limit > 0 && i == limit {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = displayValue(v)
		}
		fmt.Fprintln(tw, "  "+strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func displayValue(v interface{}) string {
	if v == nil {
		return "<null>"
	}
	return schema.FormatValue(v)
}
