package domain

import (
	"strconv"
	"strings"
	"time"
)

// Record is a raw upstream collection record. The upstream schemas are
// inconsistent (camelCase vs snake_case, numeric vs string identifiers),
// so callers read fields through the probing helpers below instead of
// indexing the map directly. Probing never panics; a miss returns the
// zero value.
type Record map[string]any

// Field returns the first present, non-nil value among the given keys.
func (r Record) Field(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first matching field coerced to a string.
// Numeric values are formatted without a decimal point when integral,
// so a JSON 42 and a JSON "42" compare equal after coercion.
func (r Record) String(keys ...string) string {
	v, ok := r.Field(keys...)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Int64 returns the first matching field as an int64.
func (r Record) Int64(keys ...string) (int64, bool) {
	v, ok := r.Field(keys...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Time parses the first matching field as a timestamp. Upstream mixes
// RFC 3339 and plain date formats; unparseable or absent values return
// nil, which the queue renders as "N/A".
func (r Record) Time(keys ...string) *time.Time {
	v, ok := r.Field(keys...)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Sub returns the first matching field that is itself a record.
func (r Record) Sub(keys ...string) (Record, bool) {
	v, ok := r.Field(keys...)
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	}
	return nil, false
}

// Slice returns the first matching field that is a JSON array.
func (r Record) Slice(keys ...string) ([]any, bool) {
	v, ok := r.Field(keys...)
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// Clone returns a shallow copy so cached records can be handed out
// without aliasing the cache's own map.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Stringify coerces a scalar to its string form for loose identifier
// matching. JSON numbers arrive as float64; integral values must not
// grow a ".0" suffix or they would never match their string twins.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

// LooseEqual compares two scalars as strings, tolerating numeric vs
// string identifier mismatches across collections.
func LooseEqual(a, b any) bool {
	sa, sb := Stringify(a), Stringify(b)
	if sa == "" || sb == "" {
		return false
	}
	return sa == sb
}
