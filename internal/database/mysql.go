package database

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/koba/table-diff/internal/schema"
)

// MySQL implements the Database interface for MySQL
type MySQL struct {
	config Config
	db     *sql.DB
}

// NewMySQL creates a new MySQL database connection
func NewMySQL(config Config) *MySQL {
	return &MySQL{config: config}
}

// Connect establishes a connection to MySQL
func (m *MySQL) Connect() error {
	db, err := sql.Open("mysql", m.config.DSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m.db = db
	return nil
}

// Close closes the MySQL connection
func (m *MySQL) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// GetAllTables retrieves all table names in the database
func (m *MySQL) GetAllTables() ([]string, error) {
	query := "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME"
	rows, err := m.db.Query(query, m.config.Database)
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
func (m *MySQL) GetTable(tableName string, limit int) (*schema.Table, error) {
	tables, err := m.GetAllTables()
	if err != nil {
		return nil, err
	}
	if !containsTable(tables, tableName) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}

	query := "SELECT * FROM " + quoteIdent(tableName, "`")
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get table data: %w", err)
	}
	defer rows.Close()

	return scanTable(tableName, rows)
}
