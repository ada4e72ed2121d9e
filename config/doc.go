// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides layered request configuration maps.
//
// A configuration is a [Map] whose values are scalars, sequences or nested
// string keyed maps (e.g. headers). Sources are applied to a [Store] in order
// and subsequent sources override previous ones key by key:
//
//	m, err := config.Read(
//		config.Map{"timeout": 1000, "headers": map[string]any{"a": "1"}},
//		config.Map{"headers": map[string]any{"b": "2"}},
//	)
//	// m.Map() == {"timeout": 1000, "headers": {"a": "1", "b": "2"}}
//
// Nested maps are merged recursively when both sides are maps. Anything else,
// sequences included, is replaced outright by the later value.
package config
