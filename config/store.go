// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"

	"github.com/z5labs/mount/config/key"
)

// UnknownKeyerError
type UnknownKeyerError struct {
	key key.Keyer
}

// Error implements the error interface.
func (e UnknownKeyerError) Error() string {
	return fmt.Sprintf("config source tried setting config value with unknown key.Keyer: %s", e.key.Key())
}

// mapStore is last write wins. Setting a nested key below a
// non-map value replaces that value with a map.
type mapStore map[string]any

func (m mapStore) Set(k key.Keyer, v any) error {
	return set(m, k, v)
}

func set(m map[string]any, k key.Keyer, v any) error {
	switch x := k.(type) {
	case key.Name:
		setName(m, string(x), v)
	case key.Chain:
		return setKeyChain(m, x, v)
	default:
		return UnknownKeyerError{key: k}
	}
	return nil
}

func setName(m map[string]any, name string, v any) {
	sub, ok := v.(map[string]any)
	if !ok || len(sub) > 0 {
		m[name] = v
		return
	}

	// an empty map merges into an existing map as a no-op
	if _, isMap := m[name].(map[string]any); isMap {
		return
	}
	m[name] = map[string]any{}
}

// EmptyKeyChainError
type EmptyKeyChainError struct {
	Value any
}

// Error implements the error interface.
func (e EmptyKeyChainError) Error() string {
	return fmt.Sprintf("attempted to set value to an empty key chain: %v", e.Value)
}

func setKeyChain(m map[string]any, chain key.Chain, v any) error {
	if len(chain) == 0 {
		return EmptyKeyChainError{Value: v}
	}

	root := chain[0]
	if len(chain) == 1 {
		return set(m, root, v)
	}

	subM, ok := m[root.Key()].(map[string]any)
	if !ok {
		subM = make(map[string]any)
		m[root.Key()] = subM
	}
	return set(subM, chain[1:], v)
}
