// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package ptr provides helpers for working with references of values,
// mostly optional flags such as store.ParamFlags.
package ptr

// Deref returns either the zero value for type T or the
// dereferenced value of t.
func Deref[T any](t *T) T {
	var zero T
	return DerefOr(t, zero)
}

// DerefOr returns def if t is nil, otherwise the dereferenced value of t.
func DerefOr[T any](t *T, def T) T {
	if t == nil {
		return def
	}
	return *t
}

// Ref returns a reference of the given value.
func Ref[T any](t T) *T {
	return &t
}
