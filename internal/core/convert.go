package core

// convert.go turns raw listing cells into domain units.
//
// Source files carry US units: price in USD, lot size in acres and living
// area in square feet. Buildings are stored in the local currency and square
// meters. Rates come from configuration; nil inputs stay nil.

import "strings"

// Converter applies the configured currency and area rates.
type Converter struct {
	CurrencyRate float64 // target currency units per USD
	SqmPerAcre   float64
	SqmPerSqft   float64
}

// Price converts a USD amount into the target currency.
func (c Converter) Price(usd *float64) *float64 {
	return scale(usd, c.CurrencyRate)
}

// LandArea converts acres into square meters.
func (c Converter) LandArea(acres *float64) *float64 {
	return scale(acres, c.SqmPerAcre)
}

// SquareFootage converts square feet into square meters.
func (c Converter) SquareFootage(sqft *float64) *float64 {
	return scale(sqft, c.SqmPerSqft)
}

func scale(v *float64, rate float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v * rate
	return &out
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Cell returns the cleaned value of column name in row, or "" when the
// column is unknown or the row is short.
func (h HeaderIndex) Cell(row []string, name string) string {
	pos, ok := h[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
