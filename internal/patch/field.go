// Package patch provides a tri-state field for partial updates.
//
// A Field distinguishes three request shapes: the key is absent (no change),
// the key is present with null (clear the value) and the key carries a value.
package patch

import (
	"bytes"
	"encoding/json"
)

type Field[T any] struct {
	Set   bool
	Value *T
}

func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// UnmarshalJSON is only invoked when the key is present, so reaching it marks the field as set.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

func (f Field[T]) HasValue() bool {
	return f.Set && f.Value != nil
}

// Apply returns current when the field is unset, otherwise the new value (nil for null).
func (f Field[T]) Apply(current *T) *T {
	if !f.Set {
		return current
	}
	return f.Value
}
