// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import "reflect"

// Class is the static scope of a registered type. Resolving against a
// Class reads the static method and field maps of the type, and reads
// properties off Statics, e.g. a pointer to a package level struct
// holding the type's "static" fields.
type Class struct {
	typ     reflect.Type
	Statics any
}

// ClassOf returns the static scope of T with statics as its property source.
// statics may be nil.
func ClassOf[T any](statics any) Class {
	return Class{
		typ:     reflect.TypeFor[T](),
		Statics: statics,
	}
}

// Type returns the type the Class stands for.
func (c Class) Type() reflect.Type {
	return c.typ
}

type target struct {
	class  reflect.Type
	static bool

	// props is what properties are read from
	props any

	// instance is the original target for instance key lookups
	instance any
}

func targetOf(v any) (target, bool) {
	switch c := v.(type) {
	case Class:
		return target{class: c.typ, static: true, props: c.Statics}, c.typ != nil
	case *Class:
		if c == nil {
			return target{}, false
		}
		return target{class: c.typ, static: true, props: c.Statics}, c.typ != nil
	}

	t := reflect.TypeOf(v)
	if t == nil {
		return target{}, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return target{class: t, props: v, instance: v}, true
}

// fieldMap must be called with the read lock held.
func (rec *classRecord) fieldMap(tgt target) *FieldMapRecord {
	if tgt.static {
		return rec.staticFields
	}
	k, ok := rec.instanceKey(tgt.instance)
	if !ok {
		return nil
	}
	return rec.instances[k]
}
