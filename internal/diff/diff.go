// Package diff produces the old/new field comparison a reviewer sees
// before deciding. Comparison is shallow and strict: scalars compare by
// value, composite values present on both sides always count as changed
// because they are rendered as opaque summaries, never deep-compared.
package diff

import (
	"fmt"
	"sort"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// Placeholder rendered for a field absent on one side.
const absentLabel = "-"

// FieldChange is one row of the comparison.
type FieldChange struct {
	Field    string `json:"field"`
	OldLabel string `json:"old"`
	NewLabel string `json:"new"`
	Changed  bool   `json:"changed"`
}

// Comparison is the ordered old/new view. Creation mode (nil old
// snapshot) lists only the new side, with no changed marking.
type Comparison struct {
	Creation bool          `json:"creation"`
	Fields   []FieldChange `json:"fields"`
}

// Compare builds the comparison over the union of field names from both
// snapshots, in sorted order so the rendering is deterministic.
func Compare(old, next domain.Record) Comparison {
	if old == nil {
		return creation(next)
	}

	names := make(map[string]struct{}, len(old)+len(next))
	for k := range old {
		names[k] = struct{}{}
	}
	for k := range next {
		names[k] = struct{}{}
	}

	fields := make([]string, 0, len(names))
	for k := range names {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	cmp := Comparison{Fields: make([]FieldChange, 0, len(fields))}
	for _, name := range fields {
		oldVal, oldOK := old[name]
		newVal, newOK := next[name]
		cmp.Fields = append(cmp.Fields, FieldChange{
			Field:    name,
			OldLabel: label(oldVal, oldOK),
			NewLabel: label(newVal, newOK),
			Changed:  changed(oldVal, oldOK, newVal, newOK),
		})
	}
	return cmp
}

func creation(next domain.Record) Comparison {
	fields := make([]string, 0, len(next))
	for k := range next {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	cmp := Comparison{Creation: true, Fields: make([]FieldChange, 0, len(fields))}
	for _, name := range fields {
		cmp.Fields = append(cmp.Fields, FieldChange{
			Field:    name,
			OldLabel: absentLabel,
			NewLabel: label(next[name], true),
		})
	}
	return cmp
}

// changed implements the strict rule: unequal scalars are changed,
// composite values present on both sides are changed, and a field
// present on only one side is changed.
func changed(oldVal any, oldOK bool, newVal any, newOK bool) bool {
	if oldOK != newOK {
		return true
	}
	if !oldOK {
		return false
	}
	if isScalar(oldVal) && isScalar(newVal) {
		return oldVal != newVal
	}
	return true
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int32, int64:
		return true
	}
	return false
}

// label renders a value for display. Composite values are summarized,
// not enumerated: arrays become an item count, objects an opaque marker.
func label(v any, present bool) string {
	if !present || v == nil {
		return absentLabel
	}
	switch val := v.(type) {
	case []any:
		if len(val) == 1 {
			return "1 item"
		}
		return fmt.Sprintf("%d items", len(val))
	case map[string]any, domain.Record:
		return "{…}"
	}
	return domain.Stringify(v)
}

// ParameterRow is one scoring parameter in the dedicated tabular
// rendering — the only array that is enumerated rather than counted.
type ParameterRow struct {
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	MinScore  float64 `json:"min_score"`
	MaxScore  float64 `json:"max_score"`
	Threshold float64 `json:"threshold"`
}

// ParameterTable flattens a ruleset's parameter array into rows.
// Non-record entries are skipped; missing columns stay zero.
func ParameterTable(params []any) []ParameterRow {
	rows := make([]ParameterRow, 0, len(params))
	for _, p := range params {
		m, ok := p.(map[string]any)
		if !ok {
			continue
		}
		r := domain.Record(m)
		row := ParameterRow{Name: r.String("name", "parameter", "label")}
		row.Weight = numeric(r, "weight")
		row.MinScore = numeric(r, "minScore", "min_score", "min")
		row.MaxScore = numeric(r, "maxScore", "max_score", "max")
		row.Threshold = numeric(r, "threshold")
		rows = append(rows, row)
	}
	return rows
}

func numeric(r domain.Record, keys ...string) float64 {
	v, ok := r.Field(keys...)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
