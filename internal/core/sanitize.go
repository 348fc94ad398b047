package core

// sanitize.go converts string cells into typed, nullable values.
//
// Spreadsheet exports spell "no value" in many ways (empty, NaN, N/A, null,
// None). All of them map to nil. Anything else must parse as a number or the
// row is rejected; a silently dropped value would be persisted as NULL.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var absentTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"<na>": {},
}

// IsAbsent reports whether a cleaned cell means "no value".
func IsAbsent(s string) bool {
	_, ok := absentTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseFloat parses a numeric cell. Currency symbols and thousands separators
// are stripped. Absent markers return nil without error.
func ParseFloat(raw string) (*float64, error) {
	s := CleanCell(raw)
	if IsAbsent(s) {
		return nil, nil
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid number %q", raw)
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return &f, nil
}

// TruncInt converts to int32 by truncation toward zero.
func TruncInt(v *float64) (*int32, error) {
	if v == nil {
		return nil, nil
	}
	return toInt32(math.Trunc(*v))
}

// RoundInt converts to int32 rounding half away from zero.
func RoundInt(v *float64) (*int32, error) {
	if v == nil {
		return nil, nil
	}
	return toInt32(math.Round(*v))
}

func toInt32(f float64) (*int32, error) {
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil, fmt.Errorf("invalid number %v: out of integer range", f)
	}
	i := int32(f)
	return &i, nil
}
