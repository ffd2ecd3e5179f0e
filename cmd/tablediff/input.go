package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/koba/table-diff/internal/database"
	"github.com/koba/table-diff/internal/loader"
	"github.com/koba/table-diff/internal/logging"
	"github.com/koba/table-diff/internal/schema"
	"github.com/koba/table-diff/internal/session"
)

const dbPrefix = "db:"

func isDatabaseInput(src string) bool {
	return strings.HasPrefix(src, dbPrefix)
}

// readFile reads a local file and resolves the sheet to read. A file with
// exactly one sheet needs no explicit choice.
func readFile(path, sheet string) (loader.File, loader.ReadOptions, error) {
	f, err := loader.ReadFile(path)
	if err != nil {
		return loader.File{}, loader.ReadOptions{}, err
	}

	opts := loader.ReadOptions{Sheet: sheet}
	if sheet == "" {
		fileOpts, err := loader.FileOptions(f)
		if err != nil {
			return loader.File{}, loader.ReadOptions{}, err
		}
		if len(fileOpts.Sheets) == 1 {
			opts.Sheet = fileOpts.Sheets[0]
		}
	}
	return f, opts, nil
}

// readTable reads a single table from a file or a db:<table> source
func readTable(src, sheet string) (*schema.Table, error) {
	if isDatabaseInput(src) {
		return readDatabaseTable(strings.TrimPrefix(src, dbPrefix))
	}

	f, opts, err := readFile(src, sheet)
	if err != nil {
		return nil, err
	}
	return loader.Load(f, opts)
}

func readDatabaseTable(table string) (*schema.Table, error) {
	dbConfig := cfg.DatabaseConfig()

	db, err := database.NewDatabase(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	logger.Debug("Connecting to database",
		zap.String("type", dbConfig.Type),
		zap.String("dsn", logging.SanitizeDSN(dbConfig.DSN())))

	// Connect to database
	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	t, err := db.GetTable(table, cfg.Database.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return t, nil
}

// loadSession fills a session with the base and compare tables
func loadSession(s *session.Session, baseSrc, compareSrc string) error {
	if isDatabaseInput(baseSrc) || isDatabaseInput(compareSrc) {
		base, err := readTable(baseSrc, baseSheet)
		if err != nil {
			return fmt.Errorf("failed to load base %s: %w", baseSrc, err)
		}
		compare, err := readTable(compareSrc, compareSheet)
		if err != nil {
			return fmt.Errorf("failed to load compare %s: %w", compareSrc, err)
		}
		s.SetTables(base, compare)
		return nil
	}

	baseFile, baseOpts, err := readFile(baseSrc, baseSheet)
	if err != nil {
		return err
	}
	compareFile, compareOpts, err := readFile(compareSrc, compareSheet)
	if err != nil {
		return err
	}

	if ok, msg := s.Load(baseFile, compareFile, baseOpts, compareOpts); !ok {
		return fmt.Errorf("%s", msg)
	}
	return nil
}
