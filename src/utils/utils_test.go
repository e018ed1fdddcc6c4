package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseFeedTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *time.Time
	}{
		{"minute precision", "2023/01/10 12:00", timePtr(2023, 1, 10, 12, 0, 0)},
		{"with seconds", "2023/01/10 12:00:30", timePtr(2023, 1, 10, 12, 0, 30)},
		{"surrounding space", " 2023/01/10 12:00 ", timePtr(2023, 1, 10, 12, 0, 0)},
		{"blank", "", nil},
		{"garbage", "not a date", nil},
		{"iso layout", "2023-01-10 12:00", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFeedTime(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseFeedTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("ParseFeedTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func timePtr(y int, mo time.Month, d, h, mi, s int) *time.Time {
	t := time.Date(y, mo, d, h, mi, s, 0, time.UTC)
	return &t
}

func TestParseNullDecimal(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
		want  string
	}{
		{"plain", "123.45", true, "123.45"},
		{"thousands separators", "5,000,000", true, "5000000"},
		{"negative grouped", "-2,500,500", true, "-2500500"},
		{"blank", "", false, ""},
		{"whitespace", "  ", false, ""},
		{"garbage", "abc", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNullDecimal(tt.in)
			if got.Valid != tt.valid {
				t.Fatalf("ParseNullDecimal(%q).Valid = %v, want %v", tt.in, got.Valid, tt.valid)
			}
			if tt.valid && !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseNullDecimal(%q) = %s, want %s", tt.in, got.Decimal, tt.want)
			}
		})
	}
}

func TestNullDecimalString(t *testing.T) {
	if s := NullDecimalString(decimal.NullDecimal{}); s != "" {
		t.Errorf("null formats as %q, want empty", s)
	}
	d := decimal.NullDecimal{Decimal: decimal.RequireFromString("0.002"), Valid: true}
	if s := NullDecimalString(d); s != "0.002" {
		t.Errorf("got %q, want 0.002", s)
	}
}
