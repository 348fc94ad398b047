package core

import (
	"bytes"
	"encoding/json"
)

// Field is an optional JSON field that remembers whether it was present.
//
//	absent        -> Set=false
//	"x": null     -> Set=true, Valid=false
//	"x": <value>  -> Set=true, Valid=true, Value=<value>
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Value returns a present, non-null Field.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present Field holding null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the document.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Valid = false
		f.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Ptr returns the value as a pointer, nil when null.
func (f Field[T]) Ptr() *T {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// applyTo overwrites *dst when the field was sent.
func (f Field[T]) applyTo(dst **T) {
	if f.Set {
		*dst = f.Ptr()
	}
}
