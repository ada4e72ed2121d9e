// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"reflect"

	"github.com/z5labs/mount/config/key"

	"github.com/mitchellh/mapstructure"
)

// Map is an ordinary map[string]any but implements the Source interface.
type Map map[string]any

// Apply implements the Source interface. It recursively walks the underlying
// map to find key value pairs to set on the given store.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, nil)
}

func walkMap(m map[string]any, store Store, chain key.Chain) error {
	for k, v := range m {
		next := append(chain[:len(chain):len(chain)], key.Name(k))

		sub, ok := AsMapping(v)
		if !ok || len(sub) == 0 {
			if ok {
				v = map[string]any{}
			}
			err := store.Set(next, v)
			if err != nil {
				return err
			}
			continue
		}

		err := walkMap(sub, store, next)
		if err != nil {
			return err
		}
	}
	return nil
}

// Merge deep merges the given layers, in order, into a brand new Map.
// Later layers override earlier ones key by key. None of the layers
// are modified and the returned Map shares no nested maps with them.
func Merge(layers ...Map) Map {
	srcs := make([]Source, 0, len(layers))
	for _, l := range layers {
		if l == nil {
			continue
		}
		srcs = append(srcs, l)
	}

	// a Map source only fails if the store does, which mapStore never does
	m, err := Read(srcs...)
	if err != nil {
		return Map{}
	}
	return m.Map()
}

var stringType = reflect.TypeOf("")

// AsMapping reports whether v is a plain mapping, i.e. any map keyed by
// strings, and returns it as a map[string]any. Structs are not mappings.
func AsMapping(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return x, true
	case Map:
		return x, true
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		return m, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}

	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().Convert(stringType).String()] = iter.Value().Interface()
	}
	return m, true
}

// ToMap converts v into a Map. Plain mappings are converted with AsMapping,
// structs (or pointers to structs) are encoded using their "config" tags.
// Anything else reports false.
func ToMap(v any) (Map, bool) {
	if m, ok := AsMapping(v); ok {
		return Map(m), true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	m := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "config",
		Result:  &m,
	})
	if err != nil {
		return nil, false
	}
	err = dec.Decode(rv.Interface())
	if err != nil {
		return nil, false
	}
	return Map(m), true
}
