package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/koba/table-diff/internal/schema"
)

// Postgres implements the Database interface for PostgreSQL
type Postgres struct {
	config Config
	db     *sql.DB
}

// NewPostgres creates a new PostgreSQL database connection
func NewPostgres(config Config) *Postgres {
	return &Postgres{config: config}
}

// Connect establishes a connection to PostgreSQL
func (p *Postgres) Connect() error {
	db, err := sql.Open("postgres", p.config.DSN())
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.db = db
	return nil
}

// Close closes the PostgreSQL connection
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetAllTables retrieves all table names in the public schema
func (p *Postgres) GetAllTables() ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := p.db.Query(query)
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
func (p *Postgres) GetTable(tableName string, limit int) (*schema.Table, error) {
	tables, err := p.GetAllTables()
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

	rows, err := p.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get table data: %w", err)
	}
	defer rows.Close()

	return scanTable(tableName, rows)
}
