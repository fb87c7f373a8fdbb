// Package tableview is an in-memory table engine: free-text search, sort and
// pagination over an in-memory row set described by a list of columns.
//
// A View re-derives its visible rows in a fixed order whenever an input
// changes: search filter, then sort, then page slice. Nothing is mutated in
// place; the source rows handed to the view are never reordered.
//
// A View is not safe for concurrent use. The web layer builds one per request.
package tableview

import (
	"math"
	"strconv"
	"strings"
)

// Row is one record of a table. The engine never assumes a shape beyond the
// keys its columns and search fields reference.
type Row = map[string]any

// Column describes one table column.
type Column struct {
	Key    string
	Header string

	// Accessor derives the displayed value. Nil reads row[Key].
	Accessor func(Row) any

	// SortValue derives the comparison value. Nil falls back to Accessor, then row[Key].
	SortValue func(Row) any

	// Sortable defaults to true when nil.
	Sortable *bool

	// Render produces the display text. rowIndex is the position on the current
	// page, serial the 1-based position across all visible rows.
	Render func(row Row, rowIndex, serial int) string
}

// Unsortable is a convenience for Column.Sortable.
func Unsortable() *bool {
	f := false
	return &f
}

// IsSortable reports whether header clicks may change the sort state.
func (c Column) IsSortable() bool {
	return c.Sortable == nil || *c.Sortable
}

// Value returns the accessed value of the column for row.
func (c Column) Value(row Row) any {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	return Lookup(row, c.Key)
}

func (c Column) sortValue(row Row) any {
	if c.SortValue != nil {
		return c.SortValue(row)
	}
	return c.Value(row)
}

// Lookup reads key from row. A key absent at the top level is resolved as a
// dotted path through nested maps ("employee.full_name").
func Lookup(row Row, key string) any {
	if v, ok := row[key]; ok {
		return v
	}
	if !strings.Contains(key, ".") {
		return nil
	}
	var cur any = row
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// Stringify renders a scalar the way it is searched and displayed.
// Nil becomes the empty string, never "null".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case interface{ String() string }:
		return val.String()
	default:
		return ""
	}
}

// isScalar reports whether v takes part in all-field search.
func isScalar(v any) bool {
	switch v.(type) {
	case string, float64, float32, int, int64, int32, bool, interface{ String() string }:
		return true
	}
	return false
}

// toNumber returns v as a finite float64 when it is a number or a string that
// parses as one.
func toNumber(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case interface{ String() string }:
		// json.Number and friends
		return toNumber(val.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
