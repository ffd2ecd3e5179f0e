package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/export"
	"github.com/koba/table-diff/internal/generator"
	"github.com/koba/table-diff/internal/loader"
	"github.com/koba/table-diff/internal/profile"
	"github.com/koba/table-diff/internal/session"
	"github.com/koba/table-diff/internal/snapshot"
)

func runSheets(cmd *cobra.Command, args []string) error {
	f, err := loader.ReadFile(args[0])
	if err != nil {
		return err
	}

	opts, err := loader.FileOptions(f)
	if err != nil {
		return fmt.Errorf("failed to read sheets: %w", err)
	}

	if outputFormat != "table" {
		return writeStructured(os.Stdout, opts)
	}
	if len(opts.Sheets) == 0 {
		fmt.Printf("%s has no sheets\n", f.Name)
		return nil
	}
	for _, name := range opts.Sheets {
		fmt.Println(name)
	}
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	t, err := readTable(args[0], sheet)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	s := session.New(logger, cfg.CompareOptions())
	profiles := s.Profile(t)

	var values []profile.ValueCount
	if valueColumn != "" {
		if !t.HasColumn(valueColumn) {
			return fmt.Errorf("column %q not found in %s", valueColumn, t.Name)
		}
		values = profile.ValueCounts(t, valueColumn, cfg.Compare.TopValues)
	}

	if outputFormat != "table" {
		out := map[string]interface{}{
			"table":   t.Name,
			"rows":    t.RowCount(),
			"columns": profiles,
		}
		if valueColumn != "" {
			out["values"] = values
		}
		return writeStructured(os.Stdout, out)
	}

	fmt.Printf("=== %s ===\n\n", t.Name)
	fmt.Printf("  Rows: %s\n", humanize.Comma(int64(t.RowCount())))
	fmt.Printf("  Columns: %s\n\n", humanize.Comma(int64(t.ColumnCount())))

	tw := newTabWriter()
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNON-NULL\tNULLS\tSAMPLES")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.Name, p.Type, p.NonNullPercent, p.NullCount, p.SampleValues)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if valueColumn != "" {
		fmt.Printf("\n=== Top values of %s ===\n\n", valueColumn)
		return printValueCounts(values)
	}
	return nil
}

func runKeys(cmd *cobra.Command, args []string) error {
	s := session.New(logger, cfg.CompareOptions())
	if err := loadSession(s, args[0], args[1]); err != nil {
		return err
	}

	candidates := s.RecommendKeys()
	if outputFormat != "table" {
		return writeStructured(os.Stdout, candidates)
	}

	if len(candidates) == 0 {
		fmt.Println("The tables have no columns in common.")
		return nil
	}

	tw := newTabWriter()
	fmt.Fprintln(tw, "COLUMN\tTYPE\tUNIQUE BASE\tUNIQUE COMPARE\tNULLS BASE\tNULLS COMPARE\tRECOMMENDED")
	for _, c := range candidates {
		recommended := ""
		if c.Recommended {
			recommended = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%.1f%%\t%d\t%d\t%s\n",
			c.Column, c.Type, c.UniquenessBase, c.UniquenessCompare, c.NullsBase, c.NullsCompare, recommended)
	}
	return tw.Flush()
}

func runCompare(cmd *cobra.Command, args []string) error {
	opts := cfg.CompareOptions()
	flags := cmd.Flags()
	if flags.Changed("abs-tol") {
		opts.AbsTolerance = absTol
	}
	if flags.Changed("rel-tol") {
		opts.RelTolerance = relTol
	}
	if flags.Changed("ignore-spaces") {
		opts.IgnoreSpaces = ignoreSpaces
	}
	if flags.Changed("ignore-case") {
		opts.IgnoreCase = ignoreCase
	}
	if opts.AbsTolerance < 0 || opts.RelTolerance < 0 {
		return fmt.Errorf("tolerances must not be negative")
	}

	s := session.New(logger, opts)
	if err := loadSession(s, args[0], args[1]); err != nil {
		return err
	}

	result, err := s.Compare(joinKeys)
	if err != nil {
		return err
	}
	stats := s.Stats()

	var dist *distributionOutput
	if distribution != "" {
		base, compare, err := s.ColumnDistribution(distribution)
		if err != nil {
			return fmt.Errorf("failed to compute distribution of %s: %w", distribution, err)
		}
		dist = &distributionOutput{Column: distribution, Base: base, Compare: compare}
	}

	if err := writeComparison(result, stats, dist); err != nil {
		return err
	}

	if savePath != "" {
		id, err := snapshot.Save(savePath, result, stats)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		logger.Info("Saved comparison report", zap.String("path", savePath), zap.String("id", id))
		fmt.Fprintf(os.Stderr, "Report saved: %s (%s)\n", savePath, id)
	}

	if mergedPath != "" {
		if err := writeMerged(mergedPath, stats); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Merged table written: %s\n", mergedPath)
	}

	if sqlTable != "" {
		fmt.Printf("\n-- Reconciliation SQL for %s (%s)\n", sqlTable, dialect)
		fmt.Printf("-- Generated at: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Println(generator.GenerateSQL(result, sqlTable, dialect))
	}

	return nil
}

func writeComparison(result *diff.Result, stats *diff.Stats, dist *distributionOutput) error {
	if outputFormat != "table" {
		out := newComparisonOutput(result, stats, cfg.Compare.SampleSize)
		out.Distribution = dist
		return writeStructured(os.Stdout, out)
	}

	if fullReport {
		fmt.Print(diff.Report(result, stats))
	} else {
		diff.Display(os.Stdout, result, stats)
	}

	if dist != nil {
		for _, side := range []struct {
			title  string
			values []profile.ValueCount
		}{
			{"base", dist.Base},
			{"compare", dist.Compare},
		} {
			fmt.Printf("=== Top values of %s (%s) ===\n\n", dist.Column, side.title)
			if err := printValueCounts(side.values); err != nil {
				return err
			}
			fmt.Println()
		}
	}
	return nil
}

func writeMerged(path string, stats *diff.Stats) error {
	if stats == nil || stats.Merged == nil {
		return fmt.Errorf("no merged table available")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteParquet(f, stats.Merged.Table()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write merged table: %w", err)
	}
	return f.Close()
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}

	if outputFormat != "table" {
		return writeStructured(os.Stdout, report)
	}

	fmt.Printf("=== Report %s ===\n\n", report.ID)
	fmt.Printf("  Created: %s (%s)\n", report.CreatedAt.Format(time.RFC3339), humanize.Time(report.CreatedAt))
	fmt.Printf("  Base: %s\n", report.BaseName)
	fmt.Printf("  Compare: %s\n", report.CompareName)
	fmt.Printf("  Join keys: %s\n", strings.Join(report.JoinKeys, ", "))
	if report.Stats != nil {
		fmt.Printf("  Match rate: %.1f%%\n", report.Stats.MatchRate)
		fmt.Printf("  Rows in common: %s\n", humanize.Comma(int64(report.Stats.RowsInCommon)))
	}
	fmt.Printf("  Rows only in base: %s\n", humanize.Comma(int64(len(report.BaseOnlyRows))))
	fmt.Printf("  Rows only in compare: %s\n", humanize.Comma(int64(len(report.CompareOnlyRows))))
	fmt.Printf("  Mismatched values: %s\n\n", humanize.Comma(int64(len(report.Mismatches))))

	tw := newTabWriter()
	fmt.Fprintln(tw, "COLUMN\tBASE TYPE\tCOMPARE TYPE\tMATCHES\tMISMATCHES\tMAX DIFF\tNULL DIFF")
	for _, c := range report.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%g\t%d\n",
			c.Column, c.BaseType, c.CompareType, c.MatchCount, c.MismatchCount, c.MaxDiff, c.NullDiff)
	}
	return tw.Flush()
}

func printValueCounts(values []profile.ValueCount) error {
	if len(values) == 0 {
		fmt.Println("  No values")
		return nil
	}
	tw := newTabWriter()
	for _, v := range values {
		fmt.Fprintf(tw, "  %v\t%s\n", v.Value, humanize.Comma(int64(v.Count)))
	}
	return tw.Flush()
}
