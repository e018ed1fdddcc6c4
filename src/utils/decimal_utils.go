package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNullDecimal parses a numeric feed field, tolerating thousands
// separators. Blank or unparsable values come back null rather than zero so
// that "absent" and "0" stay distinguishable downstream.
func ParseNullDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// NullDecimalString formats a nullable decimal for TEXT storage; null becomes
// the empty string.
func NullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
