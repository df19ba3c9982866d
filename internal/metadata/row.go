package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is a result row keyed by lower case column label. SQL NULL is stored as nil.
type Row map[string]any

// Has reports whether the result set had the column.
func (r Row) Has(col string) bool {
	_, ok := r[strings.ToLower(col)]
	return ok
}

// String returns the column as text. ok is false for missing columns and NULL.
func (r Row) String(col string) (string, bool) {
	v, found := r[strings.ToLower(col)]
	if !found || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// Str returns the column as text, "" when missing or NULL.
func (r Row) Str(col string) string {
	s, _ := r.String(col)
	return s
}

// Int64 returns the column as an integer.
func (r Row) Int64(col string) (int64, bool) {
	v, found := r[strings.ToLower(col)]
	if !found || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		return int64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	s, _ := r.String(col)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// Int returns the column as an int, 0 when missing.
func (r Row) Int(col string) int {
	n, _ := r.Int64(col)
	return int(n)
}

// Bool interprets numeric and textual truth values.
func (r Row) Bool(col string) bool {
	v, found := r[strings.ToLower(col)]
	if !found || v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	s := strings.ToLower(strings.TrimSpace(r.Str(col)))
	switch s {
	case "1", "t", "true", "y", "yes":
		return true
	}
	return false
}
