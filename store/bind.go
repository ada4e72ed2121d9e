// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"reflect"
	"strings"

	"github.com/z5labs/mount/config"
	"github.com/z5labs/mount/internal/urlpath"
)

// Slots are the argument slots which are enabled for a call.
type Slots struct {
	Body   bool
	Params bool
	Config bool
}

var bodyExemptVerbs = map[string]struct{}{
	"get":     {},
	"head":    {},
	"options": {},
	"delete":  {},
}

// DefaultSlots returns the slots implied by an HTTP verb alone. The verb
// is matched case insensitively and an empty verb uses a body.
func DefaultSlots(verb string) Slots {
	_, exempt := bodyExemptVerbs[strings.ToLower(verb)]
	return Slots{
		Body:   !exempt,
		Params: false,
		Config: true,
	}
}

// Enable returns s with every slot explicitly enabled by f switched on.
// A flag can only enable a slot, never disable it.
func (f ParamFlags) Enable(s Slots) Slots {
	s.Body = s.Body || isTrue(f.HasBody)
	s.Params = s.Params || isTrue(f.HasParams)
	s.Config = s.Config || isTrue(f.HasConfig)
	return s
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// BindArguments consumes args positionally into merged, in this order:
//
//  1. path: fills the placeholders of merged["url"] from the named
//     properties of the argument, when the url has placeholders
//  2. params: sets merged["params"], an empty map for a nil argument
//  3. body: sets merged["data"]
//  4. extra config: deep merges a mapping argument over merged
//
// Each slot only takes an argument when it is enabled and at least one
// argument was given at all. The path and params slots consume their
// position even if it lies past the last argument, leaving the url as is
// and setting empty params respectively. The body and extra config slots
// only bind when their position holds an argument.
func BindArguments(merged config.Map, args []any, rec MethodRecord) config.Map {
	if merged == nil {
		merged = config.Map{}
	}

	verb, _ := merged["method"].(string)
	slots := rec.Params.Enable(DefaultSlots(verb))
	rawURL, _ := merged["url"].(string)

	n := len(args)
	if n == 0 {
		return merged
	}

	cursor := 0
	next := func() (any, bool) {
		cursor++
		if cursor > n {
			return nil, false
		}
		return args[cursor-1], true
	}

	if urlpath.HasParams(rawURL) {
		arg, _ := next()
		merged["url"] = urlpath.Substitute(rawURL, func(name string) (any, bool) {
			return ReadProperty(arg, name)
		})
	}
	if slots.Params {
		arg, _ := next()
		if isNil(arg) {
			arg = map[string]any{}
		}
		merged["params"] = arg
	}
	if slots.Body {
		if arg, ok := next(); ok {
			merged["data"] = arg
		}
	}
	if slots.Config {
		if arg, ok := next(); ok {
			if extra, isMap := config.ToMap(arg); isMap {
				merged = config.Merge(merged, extra)
			}
		}
	}
	return merged
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
