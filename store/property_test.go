// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type propertyMap map[string]any

func (m propertyMap) Property(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

type embedded struct {
	Region string
}

type getters struct {
	embedded

	Timeout int
	Named   string `mount:"customName"`
	hidden  string
}

func (getters) BaseURL() string {
	return "https://example.com"
}

func (*getters) Pair() (string, error) {
	return "first", nil
}

func (*getters) Boom() string {
	panic("boom")
}

func (getters) NoResult() {}

func (getters) WithArg(string) string {
	return "nope"
}

func TestReadProperty(t *testing.T) {
	target := &getters{
		embedded: embedded{Region: "us-east-1"},
		Timeout:  1000,
		Named:    "tagged",
		hidden:   "secret",
	}

	testCases := []struct {
		Name   string
		Target any
		Prop   string
		Expect any
		Ok     bool
	}{
		{Name: "nil target", Target: nil, Prop: "timeout"},
		{Name: "empty name", Target: target, Prop: ""},
		{Name: "exact field name", Target: target, Prop: "Timeout", Expect: 1000, Ok: true},
		{Name: "lower cased field name", Target: target, Prop: "timeout", Expect: 1000, Ok: true},
		{Name: "promoted field", Target: target, Prop: "region", Expect: "us-east-1", Ok: true},
		{Name: "tagged field", Target: target, Prop: "customName", Expect: "tagged", Ok: true},
		{Name: "unexported field", Target: target, Prop: "hidden"},
		{Name: "value receiver getter", Target: target, Prop: "baseURL", Expect: "https://example.com", Ok: true},
		{Name: "pointer receiver getter with many results", Target: target, Prop: "pair", Expect: "first", Ok: true},
		{Name: "pointer receiver getter on a value", Target: getters{}, Prop: "pair"},
		{Name: "panicking getter", Target: target, Prop: "boom"},
		{Name: "method without results", Target: target, Prop: "noResult"},
		{Name: "method with arguments", Target: target, Prop: "withArg"},
		{Name: "missing property", Target: target, Prop: "missing"},
		{Name: "nil pointer", Target: (*getters)(nil), Prop: "timeout"},
		{Name: "map key", Target: map[string]any{"timeout": 5}, Prop: "timeout", Expect: 5, Ok: true},
		{Name: "missing map key", Target: map[string]int{"a": 1}, Prop: "timeout"},
		{Name: "property reader", Target: propertyMap{"timeout": 7}, Prop: "timeout", Expect: 7, Ok: true},
		{Name: "scalar", Target: 42, Prop: "timeout"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			v, ok := ReadProperty(testCase.Target, testCase.Prop)
			if !assert.Equal(t, testCase.Ok, ok) {
				return
			}
			if !assert.Equal(t, testCase.Expect, v) {
				return
			}
		})
	}

	t.Run("will read the current value", func(t *testing.T) {
		target := &getters{Timeout: 1}
		v, _ := ReadProperty(target, "timeout")
		assert.Equal(t, 1, v)

		target.Timeout = 2
		v, _ = ReadProperty(target, "timeout")
		assert.Equal(t, 2, v)
	})
}
