// Package join implements the full outer equi-join used to align the base and
// compare tables. Every output row carries a provenance indicator telling
// whether its key combination was found in both inputs or only one of them.
//
// Duplicate key combinations multiply rows following ordinary relational
// semantics: a key present twice in base and three times in compare yields six
// "both" rows. Callers that need one row per key must deduplicate first.
package join

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/koba/table-diff/internal/schema"
)

var (
	// ErrNoJoinKeys is returned when the key list is empty
	ErrNoJoinKeys = errors.New("at least one join key is required")

	// ErrKeyNotFound is returned when a join key is missing from one of the tables
	ErrKeyNotFound = errors.New("join key not found")

	// ErrIncompatibleKeys is returned when a join key has incompatible types on each side
	ErrIncompatibleKeys = errors.New("incompatible join key types")
)

// Indicator tags the provenance of a merged row
type Indicator string

const (
	Both      Indicator = "both"
	LeftOnly  Indicator = "left_only"
	RightOnly Indicator = "right_only"
)

const (
	BaseSuffix      = "_base"
	CompareSuffix   = "_compare"
	IndicatorColumn = "_merge"
)

// Source identifies which input a merged column came from
type Source int

const (
	SourceKey Source = iota
	SourceBase
	SourceCompare
)

// MergedColumn describes one output column of the join
type MergedColumn struct {
	Name   string
	Origin string // column name in the source table
	Source Source
	Type   schema.DataType

	baseIdx    int
	compareIdx int
}

// MergedRow is one output row. BaseIndex and CompareIndex point at the source
// rows and are -1 when that side has no row.
type MergedRow struct {
	Values       schema.Row
	Indicator    Indicator
	BaseIndex    int
	CompareIndex int
}

// Merged is the result of an outer join
type Merged struct {
	Keys    []string
	Columns []MergedColumn
	Rows    []MergedRow
}

// Counts holds the number of merged rows per indicator
type Counts struct {
	Both      int
	LeftOnly  int
	RightOnly int
}

// OuterJoin performs a full outer join of base and compare on keys
func OuterJoin(base, compare *schema.Table, keys []string) (*Merged, error) {
	if len(keys) == 0 {
		return nil, ErrNoJoinKeys
	}

	baseKeyIdx := make([]int, len(keys))
	compareKeyIdx := make([]int, len(keys))
	isKey := make(map[string]bool, len(keys))
	for i, key := range keys {
		if isKey[key] {
			return nil, fmt.Errorf("join key %q listed twice", key)
		}
		isKey[key] = true

		baseKeyIdx[i] = base.ColumnIndex(key)
		if baseKeyIdx[i] < 0 {
			return nil, fmt.Errorf("%w: %q is not a column of the base table", ErrKeyNotFound, key)
		}
		compareKeyIdx[i] = compare.ColumnIndex(key)
		if compareKeyIdx[i] < 0 {
			return nil, fmt.Errorf("%w: %q is not a column of the compare table", ErrKeyNotFound, key)
		}

		baseType := base.Columns[baseKeyIdx[i]].Type
		compareType := compare.Columns[compareKeyIdx[i]].Type
		if !compatible(baseType, compareType) {
			return nil, fmt.Errorf("%w: %q is %s in base and %s in compare", ErrIncompatibleKeys, key, baseType, compareType)
		}
	}

	merged := &Merged{Keys: append([]string(nil), keys...)}
	merged.Columns = mergedColumns(base, compare, keys, isKey)

	// Index compare rows by key
	compareRows := make(map[string][]int, compare.RowCount())
	for j, row := range compare.Rows {
		key := rowKey(row, compareKeyIdx)
		compareRows[key] = append(compareRows[key], j)
	}

	matched := make([]bool, compare.RowCount())
	for i, row := range base.Rows {
		matches := compareRows[rowKey(row, baseKeyIdx)]
		if len(matches) == 0 {
			merged.Rows = append(merged.Rows, merged.buildRow(base, compare, i, -1))
			continue
		}
		for _, j := range matches {
			matched[j] = true
			merged.Rows = append(merged.Rows, merged.buildRow(base, compare, i, j))
		}
	}

	for j := range compare.Rows {
		if !matched[j] {
			merged.Rows = append(merged.Rows, merged.buildRow(base, compare, -1, j))
		}
	}

	return merged, nil
}

func mergedColumns(base, compare *schema.Table, keys []string, isKey map[string]bool) []MergedColumn {
	columns := make([]MergedColumn, 0, base.ColumnCount()+compare.ColumnCount())

	for _, key := range keys {
		baseCol, _ := base.Column(key)
		compareCol, _ := compare.Column(key)
		columns = append(columns, MergedColumn{
			Name:       key,
			Origin:     key,
			Source:     SourceKey,
			Type:       keyType(baseCol.Type, compareCol.Type),
			baseIdx:    base.ColumnIndex(key),
			compareIdx: compare.ColumnIndex(key),
		})
	}

	for idx, col := range base.Columns {
		if isKey[col.Name] {
			continue
		}
		name := col.Name
		if compare.HasColumn(col.Name) {
			name += BaseSuffix
		}
		columns = append(columns, MergedColumn{
			Name:       name,
			Origin:     col.Name,
			Source:     SourceBase,
			Type:       col.Type,
			baseIdx:    idx,
			compareIdx: -1,
		})
	}

	for idx, col := range compare.Columns {
		if isKey[col.Name] {
			continue
		}
		name := col.Name
		if base.HasColumn(col.Name) {
			name += CompareSuffix
		}
		columns = append(columns, MergedColumn{
			Name:       name,
			Origin:     col.Name,
			Source:     SourceCompare,
			Type:       col.Type,
			baseIdx:    -1,
			compareIdx: idx,
		})
	}

	return uniqueSuffixedNames(columns)
}

// keyType is the type of a merged key column holding values from both sides
func keyType(a, b schema.DataType) schema.DataType {
	switch {
	case a == b || b == schema.TypeNull:
		return a
	case a == schema.TypeNull:
		return b
	case a.IsNumeric() && b.IsNumeric():
		return schema.TypeFloat
	default:
		return schema.TypeObject
	}
}

// uniqueSuffixedNames renames suffixed columns that clash with a column
// already named that way, appending ".1", ".2", ...
func uniqueSuffixedNames(columns []MergedColumn) []MergedColumn {
	taken := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.Name == col.Origin {
			taken[col.Name] = true
		}
	}

	for i, col := range columns {
		if col.Name == col.Origin {
			continue
		}
		name := col.Name
		for n := 1; taken[name]; n++ {
			name = fmt.Sprintf("%s.%d", col.Name, n)
		}
		taken[name] = true
		columns[i].Name = name
	}
	return columns
}

func (m *Merged) buildRow(base, compare *schema.Table, baseIdx, compareIdx int) MergedRow {
	row := MergedRow{
		Values:       make(schema.Row, len(m.Columns)),
		BaseIndex:    baseIdx,
		CompareIndex: compareIdx,
	}

	switch {
	case baseIdx >= 0 && compareIdx >= 0:
		row.Indicator = Both
	case baseIdx >= 0:
		row.Indicator = LeftOnly
	default:
		row.Indicator = RightOnly
	}

	for i, col := range m.Columns {
		switch col.Source {
		case SourceKey:
			if baseIdx >= 0 {
				row.Values[i] = base.Rows[baseIdx][col.baseIdx]
			} else {
				row.Values[i] = compare.Rows[compareIdx][col.compareIdx]
			}
			if n, ok := row.Values[i].(int64); ok && col.Type == schema.TypeFloat {
				row.Values[i] = float64(n)
			}
		case SourceBase:
			if baseIdx >= 0 {
				row.Values[i] = base.Rows[baseIdx][col.baseIdx]
			}
		case SourceCompare:
			if compareIdx >= 0 {
				row.Values[i] = compare.Rows[compareIdx][col.compareIdx]
			}
		}
	}

	return row
}

// Counts returns the number of rows per indicator
func (m *Merged) Counts() Counts {
	var c Counts
	for _, row := range m.Rows {
		switch row.Indicator {
		case Both:
			c.Both++
		case LeftOnly:
			c.LeftOnly++
		case RightOnly:
			c.RightOnly++
		}
	}
	return c
}

// Table renders the merge as a table with a trailing indicator column
func (m *Merged) Table() *schema.Table {
	t := &schema.Table{Name: "merged"}
	for i, col := range m.Columns {
		t.Columns = append(t.Columns, schema.Column{Name: col.Name, Type: col.Type, Position: i})
	}
	indicator := IndicatorColumn
	for n := 1; t.HasColumn(indicator); n++ {
		indicator = fmt.Sprintf("%s.%d", IndicatorColumn, n)
	}
	t.Columns = append(t.Columns, schema.Column{Name: indicator, Type: schema.TypeString, Position: len(m.Columns)})

	t.Rows = make([]schema.Row, len(m.Rows))
	for i, row := range m.Rows {
		values := make(schema.Row, 0, len(row.Values)+1)
		values = append(values, row.Values...)
		t.Rows[i] = append(values, string(row.Indicator))
	}
	return t
}

// compatible reports whether key columns of these types can be joined
func compatible(a, b schema.DataType) bool {
	if a == schema.TypeNull || b == schema.TypeNull {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	if a == b {
		return true
	}
	return (a == schema.TypeObject && b == schema.TypeString) || (a == schema.TypeString && b == schema.TypeObject)
}

// rowKey generates a hashable key for a row from the key column positions
func rowKey(row schema.Row, idx []int) string {
	parts := make([]string, len(idx))
	for i, col := range idx {
		parts[i] = keyPart(row[col])
	}

	// JSON keeps part boundaries unambiguous
	keyJSON, err := json.Marshal(parts)
	if err != nil {
		return fmt.Sprintf("%q", parts)
	}
	return string(keyJSON)
}

// keyPart encodes a single key cell. Integral floats encode like integers so
// 1 and 1.0 land on the same key.
func keyPart(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "n:"
	case int64:
		return "i:" + strconv.FormatInt(val, 10)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<63 {
			return "i:" + strconv.FormatInt(int64(val), 10)
		}
		return "f:" + strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return "b:" + strconv.FormatBool(val)
	case string:
		return "s:" + val
	case time.Time:
		return "t:" + strconv.FormatInt(val.UnixNano(), 10)
	default:
		return "o:" + fmt.Sprintf("%v", val)
	}
}
