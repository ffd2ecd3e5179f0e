package loader

import (
	"fmt"
	"os"

	"github.com/koba/table-diff/internal/database"
	"github.com/koba/table-diff/internal/schema"
)

// SQLite reads tables from SQLite database files. Tables are listed and
// selected the same way as workbook sheets.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }
func (SQLite) Extensions() []string { return []string{".db", ".sqlite", ".sqlite3"} }
func (s SQLite) CanHandle(name string) bool { return hasExtension(name, s.Extensions()) }

// Options lists the database tables
func (SQLite) Options(f File) (Options, error) {
	var tables []string
	err := withSQLite(f, func(db database.Database) error {
		var err error
		tables, err = db.GetAllTables()
		return err
	})
	if err != nil {
		return Options{}, err
	}
	return Options{Sheets: tables}, nil
}

func (SQLite) Read(f File, opts ReadOptions) (*schema.Table, error) {
	if opts.Sheet == "" {
		return nil, ErrSheetRequired
	}

	var t *schema.Table
	err := withSQLite(f, func(db database.Database) error {
		tables, err := db.GetAllTables()
		if err != nil {
			return err
		}
		if !contains(tables, opts.Sheet) {
			return fmt.Errorf("%w: %q", ErrSheetNotFound, opts.Sheet)
		}
		t, err = db.GetTable(opts.Sheet, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.Name = tableName(f, opts.Sheet)
	return t, nil
}

// withSQLite opens the file's bytes as a database for the duration of fn
func withSQLite(f File, fn func(database.Database) error) error {
	tmp, err := os.CreateTemp("", "tablediff-*.db")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	db := database.NewSQLite(database.Config{Type: "sqlite", Database: tmp.Name()})
	if err := db.Connect(); err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}
