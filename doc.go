// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mount performs HTTP requests whose configuration is declared
// on types instead of being assembled at every call site.
//
// Declarations live in a [store.Registry]: a type level config, per method
// configs and field maps which copy the current value of a property into
// the request config. A [Service] resolves the effective config of a call
// from, weakest to strongest,
//
//   - its own defaults (see [Defaults], [DefaultsFrom] and [Service.SetConfig])
//   - the type config
//   - the "config" property of the target
//   - the field mapped properties of the target
//   - the method config
//
// after which the call arguments are bound to the path placeholders,
// query params, body and extra config of the request.
//
// # Basic Usage
//
//	type UserAPI struct {
//		TimeoutValue int
//	}
//
//	func (api *UserAPI) GetUser(ctx context.Context, svc *mount.Service, id int) (User, error) {
//		return mount.Call[User](ctx, svc, api, api.GetUser, map[string]any{"id": id})
//	}
//
//	func init() {
//		store.SetClassConfig[UserAPI](store.Default, config.Map{
//			"baseURL": "https://api.example.com",
//		})
//		store.AddInstanceMethodConfig[UserAPI](store.Default, (*UserAPI).GetUser, store.MethodRecord{
//			Config: config.Map{"method": "get", "url": "/users/:id"},
//		})
//	}
//
// A config with "simulated" set to true is resolved but never sent.
// Several calls can be performed concurrently with [Service.DoAll].
package mount
