package domain_test

import (
	"testing"
	"time"

	"github.com/aquagrid/approval-engine/internal/domain"
)

func TestRecord_String_ProbesVariantsInOrder(t *testing.T) {
	r := domain.Record{"account_number": "ACC-9", "accountNumber": "ACC-1"}

	if got := r.String("account", "accountNumber", "account_number"); got != "ACC-1" {
		t.Fatalf("expected first present variant ACC-1, got %q", got)
	}
}

func TestRecord_String_CoercesNumbers(t *testing.T) {
	// JSON numbers decode as float64; integral values must not grow ".0".
	r := domain.Record{"id": float64(42)}
	if got := r.String("id"); got != "42" {
		t.Fatalf("expected 42, got %q", got)
	}
}

func TestRecord_String_MissingIsEmpty(t *testing.T) {
	r := domain.Record{"other": "x", "null": nil}
	if got := r.String("missing", "null"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestRecord_Int64(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int64
		ok   bool
	}{
		{"float64", float64(7), 7, true},
		{"string", "19", 19, true},
		{"padded string", " 19 ", 19, true},
		{"garbage", "abc", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := domain.Record{"id": tc.val}
			got, ok := r.Int64("id")
			if ok != tc.ok || got != tc.want {
				t.Fatalf("expected (%d, %v), got (%d, %v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestRecord_Time_Formats(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *time.Time
	}{
		{"rfc3339", "2024-03-10T08:30:00Z", timePtr(2024, 3, 10, 8, 30)},
		{"date only", "2024-03-10", timePtr(2024, 3, 10, 0, 0)},
		{"space separated", "2024-03-10 08:30:00", timePtr(2024, 3, 10, 8, 30)},
		{"garbage", "soon", nil},
		{"numeric", float64(1710000000), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := domain.Record{"createdAt": tc.value}
			got := r.Time("createdAt")
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if got != nil && !got.Equal(*tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRecord_Sub(t *testing.T) {
	r := domain.Record{"zone": map[string]any{"id": "Z-1"}}
	sub, ok := r.Sub("zone")
	if !ok || sub.String("id") != "Z-1" {
		t.Fatalf("expected nested zone record, got %v (ok=%v)", sub, ok)
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"number vs string", float64(105), "105", true},
		{"string vs string", "ACC-1", "ACC-1", true},
		{"different", "ACC-1", "ACC-2", false},
		{"empty never matches", "", "", false},
		{"nil never matches", nil, "x", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.LooseEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("LooseEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func timePtr(year int, month time.Month, day, hour, minute int) *time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return &t
}
