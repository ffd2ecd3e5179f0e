package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/koba/table-diff/internal/schema"
)

// ErrTableNotFound is returned when the requested table does not exist
var ErrTableNotFound = errors.New("table not found")

// Config holds database connection configuration
type Config struct {
	Type     string // "mysql", "postgres" or "sqlite"
	Host     string
	Port     string
	Database string // database name, or file path for sqlite
	User     string
	Password string
}

// Database interface defines operations for database connections
type Database interface {
	Connect() error
	Close() error
	GetAllTables() ([]string, error)
	GetTable(tableName string, limit int) (*schema.Table, error)
}

// NewDatabase creates a new database connection based on type
func NewDatabase(config Config) (Database, error) {
	switch NormalizeType(config.Type) {
	case "mysql":
		return NewMySQL(config), nil
	case "postgres":
		return NewPostgres(config), nil
	case "sqlite":
		return NewSQLite(config), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// NormalizeType maps the accepted spellings of a database type onto
// "mysql", "postgres" or "sqlite". Unknown types are returned lower-cased.
func NormalizeType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "mysql":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(dbType)
	}
}

// DefaultPort returns the standard port for a database type, or "" when none applies
func DefaultPort(dbType string) string {
	switch NormalizeType(dbType) {
	case "mysql":
		return "3306"
	case "postgres":
		return "5432"
	default:
		return ""
	}
}

// DSN returns the driver connection string for the configuration
func (c Config) DSN() string {
	switch NormalizeType(c.Type) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	default:
		return c.Database
	}
}

func containsTable(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}

// scanTable reads every row of a result set into a table. Text-encoded
// numbers are parsed using the driver's column type names.
func scanTable(name string, rows *sql.Rows) (*schema.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	var data [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			values[i] = convertValue(val, columnTypes[i].DatabaseTypeName())
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return schema.FromValues(name, columns, data)
}

func convertValue(val interface{}, dbType string) interface{} {
	b, ok := val.([]byte)
	if !ok {
		return val
	}
	s := string(b)

	switch strings.TrimPrefix(strings.ToUpper(dbType), "UNSIGNED ") {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR", "INT2", "INT4", "INT8":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "BOOL", "BOOLEAN":
		if v, err := strconv.ParseBool(s); err == nil {
			return v
		}
	}
	return s
}

// quoteIdent quotes an identifier, doubling any embedded quote character
func quoteIdent(name, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}
