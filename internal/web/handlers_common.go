package web

// Shared request parsing helpers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/estates/internal/core"
)

// decodeJSON reads a JSON body into dst. encoding/json is used on purpose:
// core.Field relies on UnmarshalJSON being called for explicit nulls.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return &core.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if dec.More() {
		return &core.ValidationError{Field: "body", Message: "invalid request body: trailing data"}
	}
	return nil
}

// parseIDParam parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int32, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, &core.ValidationError{Field: "id", Value: raw, Message: "invalid number"}
	}
	return int32(id), nil
}

// optionalInt parses an integer query parameter. Missing or empty is nil.
func optionalInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &core.ValidationError{Field: name, Value: raw, Message: "invalid number"}
	}
	return &v, nil
}

// optionalBool parses a boolean query parameter. Missing or empty is nil.
func optionalBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &core.ValidationError{Field: name, Value: raw, Message: fmt.Sprintf("invalid boolean %q", raw)}
	}
	return &v, nil
}

// optionalString returns the trimmed query parameter, nil when empty.
func optionalString(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}

// parseSearchQuery reads the search filters and paging parameters.
func parseSearchQuery(r *http.Request) (core.SearchQuery, error) {
	var (
		q   core.SearchQuery
		err error
	)
	if q.MinSqft, err = optionalInt(r, "min_sqft"); err != nil {
		return q, err
	}
	if q.MaxSqft, err = optionalInt(r, "max_sqft"); err != nil {
		return q, err
	}
	if q.Parking, err = optionalBool(r, "parking"); err != nil {
		return q, err
	}
	q.State = optionalString(r, "state")
	q.EstateType = optionalString(r, "estate_type")

	page, err := optionalInt(r, "page")
	if err != nil {
		return q, err
	}
	if page != nil {
		q.Page = *page
	}

	size, err := optionalInt(r, "size")
	if err != nil {
		return q, err
	}
	if size != nil {
		if *size == 0 {
			return q, &core.ValidationError{Field: "size", Value: "0", Message: fmt.Sprintf("invalid range: must be between 1 and %d", core.MaxPageSize)}
		}
		q.Size = *size
	}
	return q, nil
}
