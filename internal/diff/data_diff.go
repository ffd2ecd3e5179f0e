package diff

import (
	"math"
	"strings"
	"time"
)

// valuesEqual compares two cells. Nulls equal each other, numbers compare by
// value within the tolerances, everything else must have the same type and value.
func valuesEqual(a, b interface{}, opts Options) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		if !ok {
			return false
		}
		return numbersClose(x, y, opts)
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return false
		}
		if opts.IgnoreSpaces {
			va, vb = strings.TrimSpace(va), strings.TrimSpace(vb)
		}
		if opts.IgnoreCase {
			return strings.EqualFold(va, vb)
		}
		return va == vb
	case time.Time:
		vb, ok := b.(time.Time)
		return ok && va.Equal(vb)
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	default:
		return a == b
	}
}

func numbersClose(x, y float64, opts Options) bool {
	if x == y {
		return true
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	return math.Abs(x-y) <= opts.AbsTolerance+opts.RelTolerance*math.Abs(y)
}

// numericDiff returns |a-b| when both cells are numbers
func numericDiff(a, b interface{}) (float64, bool) {
	x, ok := toFloat(a)
	if !ok {
		return 0, false
	}
	y, ok := toFloat(b)
	if !ok {
		return 0, false
	}
	return math.Abs(x - y), true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
