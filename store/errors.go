// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import "fmt"

// InvalidMethodError occurs when a method identity is neither a non-empty
// method name, a reflect.Method nor a non-nil func value.
type InvalidMethodError struct {
	Method any
}

// Error implements the [builtin.error] interface.
func (e InvalidMethodError) Error() string {
	return fmt.Sprintf("method must be a method name, reflect.Method or func: got %T", e.Method)
}
