package profile

import (
	"sort"

	"github.com/koba/table-diff/internal/schema"
)

// ValueCount is one entry of a value frequency table
type ValueCount struct {
	Value interface{} `json:"value" yaml:"value"`
	Count int         `json:"count" yaml:"count"`
}

// ValueCounts returns the n most frequent non-null values of a column, most
// frequent first. Ties keep first-appearance order. n <= 0 returns every value.
// A missing column yields nil.
func ValueCounts(t *schema.Table, column string, n int) []ValueCount {
	if !t.HasColumn(column) {
		return nil
	}

	index := make(map[string]int)
	var counts []ValueCount
	for _, v := range t.Values(column) {
		if v == nil {
			continue
		}
		key := valueKey(v)
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
