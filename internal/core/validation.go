package core

// validation.go holds the input checks that run before any store access:
// search filters, building field ranges and listing file headers.

import (
	"fmt"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidateSearch checks ranges and fills defaults. It never touches the store.
func ValidateSearch(q *SearchQuery) error {
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Size < 1 || q.Size > MaxPageSize {
		return &ValidationError{
			Field:   "size",
			Value:   fmt.Sprint(q.Size),
			Message: fmt.Sprintf("invalid range: must be between 1 and %d", MaxPageSize),
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.MinSqft != nil && *q.MinSqft < 0 {
		return &ValidationError{Field: "min_sqft", Value: fmt.Sprint(*q.MinSqft), Message: "invalid range: must be non-negative"}
	}
	if q.MaxSqft != nil && *q.MaxSqft < 0 {
		return &ValidationError{Field: "max_sqft", Value: fmt.Sprint(*q.MaxSqft), Message: "invalid range: must be non-negative"}
	}
	if q.MinSqft != nil && q.MaxSqft != nil && *q.MinSqft > *q.MaxSqft {
		return &ValidationError{
			Field:   "min_sqft",
			Value:   fmt.Sprint(*q.MinSqft),
			Message: "invalid range: min_sqft must be less than or equal to max_sqft",
		}
	}
	return nil
}

// validateRecord rejects values no building can have.
func validateRecord(rec BuildingRecord) error {
	if rec.EstateTypeID <= 0 {
		return &ValidationError{Field: "estate_type_id", Message: "required field is empty"}
	}
	if rec.OfferID <= 0 {
		return &ValidationError{Field: "offer_id", Message: "required field is empty"}
	}
	if rec.CityPartID <= 0 {
		return &ValidationError{Field: "city_part_id", Message: "required field is empty"}
	}
	return validateRanges(rec)
}

// validateRanges rejects negative measures, counts and prices.
func validateRanges(rec BuildingRecord) error {
	floats := []struct {
		name string
		v    *float64
	}{
		{"square_footage", rec.SquareFootage},
		{"land_area", rec.LandArea},
		{"rooms", rec.Rooms},
	}
	for _, f := range floats {
		if f.v != nil && *f.v < 0 {
			return &ValidationError{Field: f.name, Value: fmt.Sprint(*f.v), Message: "invalid range: must be non-negative"}
		}
	}

	ints := []struct {
		name string
		v    *int32
	}{
		{"construction_year", rec.ConstructionYear},
		{"bathrooms", rec.Bathrooms},
		{"price", rec.Price},
	}
	for _, f := range ints {
		if f.v != nil && *f.v < 0 {
			return &ValidationError{Field: f.name, Value: fmt.Sprint(*f.v), Message: "invalid range: must be non-negative"}
		}
	}
	return nil
}

// ValidateHeaders checks that all required columns exist in the header row.
// Returns the header index, or an error listing the missing columns.
func ValidateHeaders(headers []string, required []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, col := range required {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}
