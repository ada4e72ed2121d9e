// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"maps"
	"reflect"
	"runtime"
	"sync"
	"weak"

	"github.com/z5labs/mount/config"
)

// Default is the process wide Registry. It starts out empty.
var Default = NewRegistry()

// ParamFlags explicitly enables argument slots for a method. A nil
// flag is absent and leaves the slot to the method kind default.
type ParamFlags struct {
	HasBody   *bool `config:"hasBody"`
	HasParams *bool `config:"hasParams"`
	HasConfig *bool `config:"hasConfig"`
}

// merge returns f overridden by every non-nil flag of other.
func (f ParamFlags) merge(other ParamFlags) ParamFlags {
	if other.HasBody != nil {
		f.HasBody = other.HasBody
	}
	if other.HasParams != nil {
		f.HasParams = other.HasParams
	}
	if other.HasConfig != nil {
		f.HasConfig = other.HasConfig
	}
	return f
}

// MethodRecord is the configuration declared directly on a method.
// It doubles as the partial configuration passed to registration.
type MethodRecord struct {
	Config config.Map
	Params ParamFlags
}

func (rec MethodRecord) clone() MethodRecord {
	return MethodRecord{
		Config: config.Merge(rec.Config),
		Params: rec.Params,
	}
}

// FieldMapRecord maps config keys to the names of properties
// whose current values are used for those keys.
type FieldMapRecord struct {
	Fields map[string]string
}

func (rec FieldMapRecord) clone() FieldMapRecord {
	fields := make(map[string]string, len(rec.Fields))
	maps.Copy(fields, rec.Fields)
	return FieldMapRecord{Fields: fields}
}

// ClassRecord is a snapshot of everything registered for a single type.
type ClassRecord struct {
	ClassConfig     config.Map
	InstanceMethods map[string]MethodRecord
	StaticMethods   map[string]MethodRecord
	StaticFields    FieldMapRecord

	// Instances is the number of live instances with a field map.
	Instances int
}

type classRecord struct {
	class           reflect.Type
	config          config.Map
	instanceMethods map[string]*MethodRecord
	staticMethods   map[string]*MethodRecord
	instances       map[any]*FieldMapRecord
	staticFields    *FieldMapRecord

	// instanceKey returns the weak key of an instance of class
	instanceKey func(any) (any, bool)
}

func (rec *classRecord) snapshot() ClassRecord {
	cr := ClassRecord{
		ClassConfig:     config.Merge(rec.config),
		InstanceMethods: make(map[string]MethodRecord, len(rec.instanceMethods)),
		StaticMethods:   make(map[string]MethodRecord, len(rec.staticMethods)),
		StaticFields:    rec.staticFields.clone(),
		Instances:       len(rec.instances),
	}
	for name, m := range rec.instanceMethods {
		cr.InstanceMethods[name] = m.clone()
	}
	for name, m := range rec.staticMethods {
		cr.StaticMethods[name] = m.clone()
	}
	return cr
}

// Registry stores declarative request configuration keyed by type.
//
// Writes are serialized. Reads during resolution take a shared lock
// and may run concurrently with each other.
type Registry struct {
	mu      sync.RWMutex
	classes map[reflect.Type]*classRecord
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[reflect.Type]*classRecord),
	}
}

// Lookup returns a snapshot of the record for class.
func (r *Registry) Lookup(class reflect.Type) (ClassRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.classes[class]
	if !ok {
		return ClassRecord{}, false
	}
	return rec.snapshot(), true
}

// FieldMap returns the field map which applies to target, i.e. the
// instance's own field map or, for a [Class], the static field map.
func (r *Registry) FieldMap(target any) (FieldMapRecord, bool) {
	tgt, ok := targetOf(target)
	if !ok {
		return FieldMapRecord{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.classes[tgt.class]
	if !ok {
		return FieldMapRecord{}, false
	}
	fm := rec.fieldMap(tgt)
	if fm == nil {
		return FieldMapRecord{}, false
	}
	return fm.clone(), true
}

// Reset forgets everything registered for class.
func (r *Registry) Reset(class reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.classes, class)
}

// recordFor must be called with the write lock held.
func recordFor[T any](r *Registry) *classRecord {
	class := reflect.TypeFor[T]()
	rec, ok := r.classes[class]
	if ok {
		return rec
	}

	rec = &classRecord{
		class:           class,
		config:          config.Map{},
		instanceMethods: make(map[string]*MethodRecord),
		staticMethods:   make(map[string]*MethodRecord),
		instances:       make(map[any]*FieldMapRecord),
		staticFields:    &FieldMapRecord{Fields: make(map[string]string)},
		instanceKey:     instanceKeyOf[T],
	}
	r.classes[class] = rec
	return rec
}

// zeroSizeKey is the instance key of every instance of a zero size
// class. Distinct zero size values may share an address so they have
// no identity of their own.
type zeroSizeKey struct{}

func instanceKeyOf[T any](v any) (any, bool) {
	p, ok := v.(*T)
	if !ok || p == nil {
		return nil, false
	}
	if reflect.TypeFor[T]().Size() == 0 {
		return zeroSizeKey{}, true
	}
	return weak.Make(p), true
}

// SetClassConfig overwrites the type level config of T.
func SetClassConfig[T any](r *Registry, cfg config.Map) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := recordFor[T](r)
	rec.config = config.Merge(cfg)
}

// AddInstanceMethodConfig merges partial into the config of the instance
// method of T identified by method.
func AddInstanceMethodConfig[T any](r *Registry, method any, partial MethodRecord) error {
	return addMethodConfig[T](r, method, partial, false)
}

// AddStaticMethodConfig merges partial into the config of the static
// method of T identified by method.
func AddStaticMethodConfig[T any](r *Registry, method any, partial MethodRecord) error {
	return addMethodConfig[T](r, method, partial, true)
}

func addMethodConfig[T any](r *Registry, method any, partial MethodRecord, static bool) error {
	name, err := MethodName(method)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := recordFor[T](r)
	methods := rec.instanceMethods
	if static {
		methods = rec.staticMethods
	}

	old, ok := methods[name]
	if !ok {
		old = &MethodRecord{Config: config.Map{}}
		methods[name] = old
	}
	old.Config = config.Merge(old.Config, partial.Config)
	old.Params = old.Params.merge(partial.Params)
	return nil
}

// AddInstanceFieldMap merges fields into the field map of instance.
// The registry does not keep instance alive; its field map is dropped
// once instance has been garbage collected. A nil instance is ignored.
//
// Instances of a zero size T all share a single field map which is
// never dropped. The field map of a package level variable is never
// dropped either.
func AddInstanceFieldMap[T any](r *Registry, instance *T, fields map[string]string) {
	if instance == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := recordFor[T](r)
	k, _ := rec.instanceKey(instance)
	fm, ok := rec.instances[k]
	if !ok {
		fm = &FieldMapRecord{Fields: make(map[string]string, len(fields))}
		rec.instances[k] = fm
		if _, shared := k.(zeroSizeKey); !shared {
			runtime.AddCleanup(instance, r.dropInstance, instanceRef{class: rec.class, key: k})
		}
	}
	maps.Copy(fm.Fields, fields)
}

// AddStaticFieldMap merges fields into the static field map of T.
func AddStaticFieldMap[T any](r *Registry, fields map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := recordFor[T](r)
	maps.Copy(rec.staticFields.Fields, fields)
}

type instanceRef struct {
	class reflect.Type
	key   any
}

func (r *Registry) dropInstance(ref instanceRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.classes[ref.class]
	if !ok {
		return
	}
	delete(rec.instances, ref.key)
}
