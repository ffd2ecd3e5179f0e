package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/koba/table-diff/internal/schema"
)

// SQLite implements the Database interface for SQLite files
type SQLite struct {
	config Config
	db     *sql.DB
}

// NewSQLite creates a new SQLite connection. config.Database is the file path.
func NewSQLite(config Config) *SQLite {
	return &SQLite{config: config}
}

// Connect opens the database file
func (s *SQLite) Connect() error {
	db, err := sql.Open("sqlite", s.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQLite: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the SQLite connection
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetAllTables retrieves all user table names
func (s *SQLite) GetAllTables() ([]string, error) {
	query := "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// GetTable retrieves the rows of a table, at most limit rows when limit > 0
func (s *SQLite) GetTable(tableName string, limit int) (*schema.Table, error) {
	tables, err := s.GetAllTables()
	if err != nil {
		return nil, err
	}
	if !containsTable(tables, tableName) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}

	query := "SELECT * FROM " + quoteIdent(tableName, `"`)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get table data: %w", err)
	}
	defer rows.Close()

	return scanTable(tableName, rows)
}
