package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koba/table-diff/internal/config"
	"github.com/koba/table-diff/internal/logging"
)

var (
	configPath   string
	outputFormat string
	logLevel     string

	sheet        string
	baseSheet    string
	compareSheet string
	valueColumn  string

	joinKeys     []string
	absTol       float64
	relTol       float64
	ignoreSpaces bool
	ignoreCase   bool
	fullReport   bool
	savePath     string
	mergedPath   string
	sqlTable     string
	dialect      string
	distribution string

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tablediff",
	Short: "Tabular dataset comparison tool",
	Long: `Compare two tabular datasets (CSV, Excel, JSON, Parquet, SQLite or a database table)
aligned on join keys and report the differences.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List the sheets or tables of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheets,
}

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile the columns of a table",
	Long:  `Show type, null counts and sample values for every column of a table.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

var keysCmd = &cobra.Command{
	Use:   "keys <base> <compare>",
	Short: "Recommend join keys",
	Long:  `Score the columns shared by both tables as join-key candidates.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runKeys,
}

var compareCmd = &cobra.Command{
	Use:   "compare <base> <compare>",
	Short: "Compare two tables",
	Long: `Join two tables on the given keys and report matching and mismatching rows and columns.
Inputs of the form db:<table> are read from the configured database.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var showCmd = &cobra.Command{
	Use:   "show <report.db>",
	Short: "Show a saved comparison report",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	// Profile command flags
	profileCmd.Flags().StringVar(&sheet, "sheet", "", "Sheet or table to read")
	profileCmd.Flags().StringVar(&valueColumn, "values", "", "Also show the most frequent values of this column")

	// Keys and compare command flags
	for _, cmd := range []*cobra.Command{keysCmd, compareCmd} {
		cmd.Flags().StringVar(&baseSheet, "base-sheet", "", "Sheet or table to read from the base file")
		cmd.Flags().StringVar(&compareSheet, "compare-sheet", "", "Sheet or table to read from the compare file")
	}

	compareCmd.Flags().StringSliceVar(&joinKeys, "keys", nil, "Comma-separated join key columns")
	compareCmd.Flags().Float64Var(&absTol, "abs-tol", 0, "Absolute tolerance for numeric columns")
	compareCmd.Flags().Float64Var(&relTol, "rel-tol", 0, "Relative tolerance for numeric columns")
	compareCmd.Flags().BoolVar(&ignoreSpaces, "ignore-spaces", false, "Ignore leading and trailing whitespace in strings")
	compareCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "Compare strings case-insensitively")
	compareCmd.Flags().BoolVar(&fullReport, "report", false, "Print the full text report")
	compareCmd.Flags().StringVar(&savePath, "save", "", "Save the comparison to a SQLite report file")
	compareCmd.Flags().StringVar(&mergedPath, "merged", "", "Write the outer-joined table to a Parquet file")
	compareCmd.Flags().StringVar(&sqlTable, "sql-table", "", "Print SQL that reconciles this table with the base side")
	compareCmd.Flags().StringVar(&dialect, "dialect", "mysql", "SQL dialect: mysql, postgres or sqlite")
	compareCmd.Flags().StringVar(&distribution, "distribution", "", "Show the value distribution of a compared column")
	_ = compareCmd.MarkFlagRequired("keys")

	rootCmd.AddCommand(sheetsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(showCmd)
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logging.New(level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	switch outputFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
	return nil
}
