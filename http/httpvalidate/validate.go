// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpvalidate decides which response status codes are accepted.
package httpvalidate

import (
	"fmt"
	"strconv"
	"strings"
)

// Validator reports whether a response status code is accepted.
type Validator func(statusCode int) bool

// Success accepts any 2xx status code.
func Success() Validator {
	return Class(2)
}

// Codes accepts exactly the given status codes.
func Codes(codes ...int) Validator {
	return func(statusCode int) bool {
		for _, code := range codes {
			if code == statusCode {
				return true
			}
		}
		return false
	}
}

// Class accepts every status code of the given class, e.g. 4 for 4xx.
func Class(class int) Validator {
	return Range(class*100, class*100+99)
}

// Range accepts every status code between min and max, inclusive.
func Range(min, max int) Validator {
	return func(statusCode int) bool {
		return statusCode >= min && statusCode <= max
	}
}

// Any accepts a status code if at least one of the validators does.
func Any(validators ...Validator) Validator {
	return func(statusCode int) bool {
		for _, validator := range validators {
			if validator(statusCode) {
				return true
			}
		}
		return false
	}
}

// InvalidStatusError is returned by Parse for a term which is
// neither a status code, a class nor a range.
type InvalidStatusError struct {
	Term string
}

func (e InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status: %q", e.Term)
}

// Parse reads a comma separated list of status codes (404), classes (2xx)
// and ranges (300-399) into a Validator accepting any of them.
func Parse(s string) (Validator, error) {
	var validators []Validator
	for _, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		v, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	if len(validators) == 0 {
		return nil, InvalidStatusError{Term: s}
	}
	return Any(validators...), nil
}

func parseTerm(term string) (Validator, error) {
	if class, ok := strings.CutSuffix(strings.ToLower(term), "xx"); ok {
		n, err := strconv.Atoi(class)
		if err != nil || n < 1 || n > 5 {
			return nil, InvalidStatusError{Term: term}
		}
		return Class(n), nil
	}

	if lo, hi, ok := strings.Cut(term, "-"); ok {
		min, err := parseCode(lo)
		if err != nil {
			return nil, InvalidStatusError{Term: term}
		}
		max, err := parseCode(hi)
		if err != nil || max < min {
			return nil, InvalidStatusError{Term: term}
		}
		return Range(min, max), nil
	}

	code, err := parseCode(term)
	if err != nil {
		return nil, InvalidStatusError{Term: term}
	}
	return Codes(code), nil
}

func parseCode(s string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if code < 100 || code > 599 {
		return 0, strconv.ErrRange
	}
	return code, nil
}
