package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when a table declares the same column name twice
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrRowWidth is returned when a row does not have one cell per column
	ErrRowWidth = errors.New("row width does not match column count")
)

// DataType is the type inferred for a column at load time
type DataType string

const (
	TypeInt      DataType = "int64"
	TypeFloat    DataType = "float64"
	TypeBool     DataType = "bool"
	TypeDatetime DataType = "datetime"
	TypeString   DataType = "string"
	TypeObject   DataType = "object" // mixed value kinds
	TypeNull     DataType = "null"   // no non-null values
)

// IsNumeric reports whether values of this type compare as numbers
func (t DataType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Column represents a table column
type Column struct {
	Name     string   `json:"name"`
	Type     DataType `json:"type"`
	Position int      `json:"position"`
}

// Row represents a single row of data, one cell per column. A nil cell is null.
type Row []interface{}

// Table represents an in-memory table with ordered, typed columns
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// RowCount returns the number of rows. A nil table has none.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnNames returns the column names in table order
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with exactly this name
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns the named column
func (t *Table) Column(name string) (Column, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return Column{}, false
	}
	return t.Columns[idx], true
}

// Values returns the cells of the named column in row order, or nil if the column does not exist
func (t *Table) Values(name string) []interface{} {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}

// RowMap returns row i keyed by column name
func (t *Table) RowMap(i int) map[string]interface{} {
	row := t.Rows[i]
	m := make(map[string]interface{}, len(t.Columns))
	for j, col := range t.Columns {
		m[col.Name] = row[j]
	}
	return m
}

// Validate checks that column names are unique and every row is as wide as the column list
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if seen[col.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		seen[col.Name] = true
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrRowWidth, i, len(row), len(t.Columns))
		}
	}

	return nil
}
