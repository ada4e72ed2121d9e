// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mount

import (
	"fmt"
	"net/http"
)

// ConfigReadError occurs when the sources given to [DefaultsFrom] fail to be read.
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read default config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ResolveError occurs when the config of a call could not be resolved,
// e.g. because the method identity is invalid.
type ResolveError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve request config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ResolveError) Unwrap() error {
	return e.Cause
}

// DecodeError occurs when a resolved config can not be decoded into a [RequestConfig].
type DecodeError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e DecodeError) Error() string {
	return fmt.Sprintf("failed to decode request config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// BuildRequestError occurs when a [RequestConfig] can not be turned into a [http.Request].
type BuildRequestError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BuildRequestError) Error() string {
	return fmt.Sprintf("failed to build http request: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BuildRequestError) Unwrap() error {
	return e.Cause
}

// InvalidParamsError occurs when the params of a request are neither
// a mapping, a struct nor [url.Values].
type InvalidParamsError struct {
	Params any
}

// Error implements the [builtin.error] interface.
func (e InvalidParamsError) Error() string {
	return fmt.Sprintf("params must be a mapping, struct or url.Values: got %T", e.Params)
}

// StatusError occurs when the response status is rejected by the
// status validation of the [Service].
type StatusError struct {
	Response *Response
}

// Error implements the [builtin.error] interface.
func (e StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d (%s)", e.Response.StatusCode, http.StatusText(e.Response.StatusCode))
}

// UnmarshalResponseError occurs when a response body can not be decoded by [Call].
type UnmarshalResponseError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e UnmarshalResponseError) Error() string {
	return fmt.Sprintf("failed to unmarshal response body: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnmarshalResponseError) Unwrap() error {
	return e.Cause
}
