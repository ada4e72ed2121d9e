// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"github.com/z5labs/mount/config"
)

// ConfigProperty is the property read off a target as its own config block.
const ConfigProperty = "config"

// Layers are the registered and live contributions to a single call,
// from weakest to strongest.
type Layers struct {
	// Class is the type level config.
	Class config.Map

	// Property is the target's "config" property.
	Property config.Map

	// Field holds the current values of the field mapped properties.
	Field config.Map

	// Method is the record of the called method.
	Method MethodRecord
}

// ResolveLayers collects the layers which apply when method is called on
// target. Unregistered types and methods, a missing or non-mapping config
// property and absent field mapped properties all contribute empty layers.
func (r *Registry) ResolveLayers(target any, method any) (Layers, error) {
	name, err := MethodName(method)
	if err != nil {
		return Layers{}, err
	}

	layers := Layers{
		Class:    config.Map{},
		Property: config.Map{},
		Field:    config.Map{},
		Method:   MethodRecord{Config: config.Map{}},
	}

	tgt, ok := targetOf(target)
	if !ok {
		return layers, nil
	}

	var fields map[string]string
	r.mu.RLock()
	rec, ok := r.classes[tgt.class]
	if ok {
		layers.Class = config.Merge(rec.config)

		methods := rec.instanceMethods
		if tgt.static {
			methods = rec.staticMethods
		}
		if m, found := methods[name]; found {
			layers.Method = m.clone()
		}

		if fm := rec.fieldMap(tgt); fm != nil {
			fields = fm.clone().Fields
		}
	}
	r.mu.RUnlock()

	// properties are read live and outside of the lock since
	// getters are user code
	if v, found := ReadProperty(tgt.props, ConfigProperty); found {
		if m, isMap := config.ToMap(v); isMap {
			layers.Property = config.Merge(m)
		}
	}
	for cfgKey, prop := range fields {
		v, found := ReadProperty(tgt.props, prop)
		if !found {
			continue
		}
		layers.Field[cfgKey] = v
	}
	return layers, nil
}

// ResolveMergedConfig returns the effective config of calling method on
// target with args. The layers are merged as
//
//	{}, defaults, class, property, field, method
//
// with later layers winning key by key, after which args are bound by
// [BindArguments]. The only error returned is an [InvalidMethodError],
// which is checked before the registry is consulted.
func (r *Registry) ResolveMergedConfig(target any, method any, defaults config.Map, args ...any) (config.Map, error) {
	layers, err := r.ResolveLayers(target, method)
	if err != nil {
		return nil, err
	}

	merged := config.Merge(
		config.Map{},
		defaults,
		layers.Class,
		layers.Property,
		layers.Field,
		layers.Method.Config,
	)
	return BindArguments(merged, args, layers.Method), nil
}
