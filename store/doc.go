// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package store keeps declarative HTTP request configuration per type and
// resolves the effective configuration of a single call.
//
// Declarations are registered once per type, usually from an init function
// or right after the type definition:
//
//	type UserAPI struct {
//		TimeoutValue int
//	}
//
//	func init() {
//		store.SetClassConfig[UserAPI](store.Default, config.Map{"baseURL": "https://example.com"})
//		store.AddInstanceMethodConfig[UserAPI](store.Default, (*UserAPI).GetUser, store.MethodRecord{
//			Config: config.Map{"method": "get", "url": "/users/:id"},
//		})
//	}
//
// At call time [Registry.ResolveMergedConfig] merges, from weakest to strongest,
// the caller defaults, the type config, the target's "config" property, the
// field mapped properties and the method config. The call arguments are then
// bound positionally to the path, params, body and extra config slots.
//
// A target is either a pointer to an instance of the registered type or a
// [Class] value for the type's static scope.
package store
