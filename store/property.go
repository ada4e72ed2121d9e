// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/z5labs/mount/config"
	"github.com/z5labs/mount/internal/try"
)

// PropertyReader lets a target expose named properties without reflection.
// When a target implements it, it is the only source of its properties.
type PropertyReader interface {
	Property(name string) (any, bool)
}

// PropertyTag names a struct field as a property, e.g. `mount:"timeoutValue"`.
const PropertyTag = "mount"

// ReadProperty reads the current value of the named property off v.
//
// Properties are looked up, in order, through the [PropertyReader]
// capability, as a key of a string keyed map, as an exported struct
// field tagged with [PropertyTag], as an exported struct field or
// zero argument getter method called name or name with its first
// rune upper cased. Getters returning more than one value only
// contribute their first result. Panicking getters are treated as
// absent properties.
func ReadProperty(v any, name string) (any, bool) {
	if v == nil || name == "" {
		return nil, false
	}
	if pr, ok := v.(PropertyReader); ok {
		return pr.Property(name)
	}
	if m, ok := config.AsMapping(v); ok {
		val, found := m[name]
		return val, found
	}

	rv := reflect.ValueOf(v)
	names := candidateNames(name)

	sv := rv
	for sv.Kind() == reflect.Pointer || sv.Kind() == reflect.Interface {
		if sv.IsNil() {
			return nil, false
		}
		sv = sv.Elem()
	}
	if sv.Kind() == reflect.Struct {
		if fv, ok := structField(sv, name, names); ok {
			return fv.Interface(), true
		}
	}

	return callGetter(rv, names)
}

func candidateNames(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	upper := string(unicode.ToUpper(r)) + name[size:]
	if upper == name {
		return []string{name}
	}
	return []string{name, upper}
}

func structField(sv reflect.Value, tag string, names []string) (reflect.Value, bool) {
	st := sv.Type()
	for _, f := range reflect.VisibleFields(st) {
		if !f.IsExported() || f.Tag.Get(PropertyTag) != tag {
			continue
		}
		fv, err := sv.FieldByIndexErr(f.Index)
		if err != nil {
			return reflect.Value{}, false
		}
		return fv, true
	}

	for _, n := range names {
		f, ok := st.FieldByName(n)
		if !ok || !f.IsExported() {
			continue
		}
		fv, err := sv.FieldByIndexErr(f.Index)
		if err != nil {
			return reflect.Value{}, false
		}
		return fv, true
	}
	return reflect.Value{}, false
}

func callGetter(rv reflect.Value, names []string) (v any, ok bool) {
	for _, n := range names {
		m := rv.MethodByName(n)
		if !m.IsValid() {
			continue
		}
		mt := m.Type()
		if mt.NumIn() != 0 || mt.NumOut() == 0 {
			continue
		}
		return call(m)
	}
	return nil, false
}

func call(m reflect.Value) (v any, ok bool) {
	var err error
	defer func() {
		if err != nil {
			v, ok = nil, false
		}
	}()
	defer try.Recover(&err)

	out := m.Call(nil)
	return out[0].Interface(), true
}
