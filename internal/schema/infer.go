package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// naStrings are text cells read as null
var naStrings = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
	"null": true,
	"None": true,
	"#N/A": true,
	"<NA>": true,
	"-nan": true,
	"-NaN": true,
	"#NA":  true,
}

// FromText builds a table from string records (CSV, spreadsheets). Each column is
// parsed as a whole: it becomes int64 if every non-null cell is an integer, float64
// if every cell is numeric, bool if every cell is true/false, and string otherwise.
func FromText(name string, headers []string, records [][]string) (*Table, error) {
	t := &Table{Name: name, Columns: newColumns(headers)}
	t.Rows = make([]Row, len(records))
	for i, rec := range records {
		if len(rec) != len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrRowWidth, i, len(rec), len(headers))
		}
		t.Rows[i] = make(Row, len(headers))
	}

	cells := make([]string, len(records))
	for c := range t.Columns {
		for r, rec := range records {
			cells[r] = rec[c]
		}
		typ, values := parseTextColumn(cells)
		t.Columns[c].Type = typ
		for r := range t.Rows {
			t.Rows[r][c] = values[r]
		}
	}

	return t, t.Validate()
}

// FromValues builds a table from already-typed cells (JSON, Parquet, databases).
// Values are normalized with NormalizeValue and column types inferred from them.
func FromValues(name string, headers []string, rows [][]interface{}) (*Table, error) {
	t := &Table{Name: name, Columns: newColumns(headers)}
	t.Rows = make([]Row, len(rows))
	for i, src := range rows {
		if len(src) != len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrRowWidth, i, len(src), len(headers))
		}
		row := make(Row, len(src))
		for j, v := range src {
			row[j] = NormalizeValue(v)
		}
		t.Rows[i] = row
	}

	column := make([]interface{}, len(rows))
	for c := range t.Columns {
		for r, row := range t.Rows {
			column[r] = row[c]
		}
		t.Columns[c].Type = inferType(column)
		if t.Columns[c].Type == TypeFloat {
			// mixed int/float columns widen to float64
			for _, row := range t.Rows {
				if n, ok := row[c].(int64); ok {
					row[c] = float64(n)
				}
			}
		}
	}

	return t, t.Validate()
}

func newColumns(headers []string) []Column {
	columns := make([]Column, len(headers))
	for i, h := range headers {
		columns[i] = Column{Name: h, Position: i}
	}
	return columns
}

func parseTextColumn(cells []string) (DataType, []interface{}) {
	values := make([]interface{}, len(cells))

	nonNull := 0
	for _, s := range cells {
		if !naStrings[s] {
			nonNull++
		}
	}
	if nonNull == 0 {
		return TypeNull, values
	}

	if parseAll(cells, values, func(s string) (interface{}, bool) {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}) {
		return TypeInt, values
	}

	if parseAll(cells, values, func(s string) (interface{}, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, false
		}
		if math.IsNaN(f) {
			return nil, true
		}
		return f, true
	}) {
		return TypeFloat, values
	}

	if parseAll(cells, values, func(s string) (interface{}, bool) {
		switch {
		case strings.EqualFold(s, "true"):
			return true, true
		case strings.EqualFold(s, "false"):
			return false, true
		}
		return nil, false
	}) {
		return TypeBool, values
	}

	for i, s := range cells {
		if naStrings[s] {
			values[i] = nil
		} else {
			values[i] = s
		}
	}
	return TypeString, values
}

func parseAll(cells []string, values []interface{}, parse func(string) (interface{}, bool)) bool {
	for i, s := range cells {
		if naStrings[s] {
			values[i] = nil
			continue
		}
		v, ok := parse(s)
		if !ok {
			return false
		}
		values[i] = v
	}
	return true
}

func inferType(values []interface{}) DataType {
	seen := make(map[DataType]bool)
	for _, v := range values {
		if v == nil {
			continue
		}
		seen[TypeOf(v)] = true
	}

	switch {
	case len(seen) == 0:
		return TypeNull
	case len(seen) == 1:
		for typ := range seen {
			return typ
		}
	case len(seen) == 2 && seen[TypeInt] && seen[TypeFloat]:
		return TypeFloat
	}
	return TypeObject
}

// TypeOf returns the DataType of a single normalized value
func TypeOf(v interface{}) DataType {
	switch v.(type) {
	case nil:
		return TypeNull
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case bool:
		return TypeBool
	case time.Time:
		return TypeDatetime
	case string:
		return TypeString
	default:
		return TypeObject
	}
}

// NormalizeValue maps Go values onto the cell value set: int64, float64, bool,
// string, time.Time or nil. NaN becomes nil. Values of any other type are kept
// as their compact JSON text.
func NormalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case int64, bool, string, time.Time:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		if uint64(val) > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case float32:
		return NormalizeValue(float64(val))
	case float64:
		if math.IsNaN(val) {
			return nil
		}
		return val
	case []byte:
		return string(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return NormalizeValue(f)
		}
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// FormatValue renders a cell for display. Null renders as an empty string.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", val)
	}
}
