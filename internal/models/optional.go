package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that remembers whether it was omitted, null, or set.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an explicitly null Optional
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field carried a non-null value
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Apply returns the merged value for a cached field
func (o Optional[T]) Apply(cached T) T {
	switch {
	case !o.Set:
		return cached
	case o.Null:
		var zero T
		return zero
	default:
		return o.Value
	}
}

// UnmarshalJSON is only called for keys present in the document
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
