// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"reflect"
	"runtime"
	"strings"
)

// MethodName derives the identity of a method. Method values
// (svc.GetUser), method expressions ((*UserAPI).GetUser) and the
// plain name "GetUser" all map to the same identity. Function literals
// have no such identity and are rejected.
func MethodName(method any) (string, error) {
	switch m := method.(type) {
	case string:
		if m != "" {
			return m, nil
		}
		return "", InvalidMethodError{Method: method}
	case reflect.Method:
		if m.Name != "" {
			return m.Name, nil
		}
		return "", InvalidMethodError{Method: method}
	}

	v := reflect.ValueOf(method)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "", InvalidMethodError{Method: method}
	}

	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return "", InvalidMethodError{Method: method}
	}

	name := strings.TrimSuffix(fn.Name(), "-fm")
	name = strings.TrimSuffix(name, "[...]")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || isClosureName(name) {
		return "", InvalidMethodError{Method: method}
	}
	return name, nil
}

// isClosureName reports whether name is the compiler generated name of
// a function literal, e.g. func1 or the 2 of func1.2.
func isClosureName(name string) bool {
	digits := strings.TrimPrefix(name, "func")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
