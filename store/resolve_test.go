// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package store

import (
	"strings"
	"testing"
	"time"

	"github.com/z5labs/mount/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// layer bits, from weakest to strongest
const (
	defaultLayer = 1 << iota
	classLayer
	propertyLayer
	fieldLayer
	methodLayer
	extraLayer
	allLayers = extraLayer<<1 - 1
)

var layerNames = []string{"default", "class", "property", "field", "method", "extra"}

func TestRegistry_ResolveMergedConfig_Precedence(t *testing.T) {
	t.Run("will let the strongest populated layer win", func(t *testing.T) {
		for set := 0; set <= allLayers; set++ {
			var names []string
			expect := any(nil)
			for i, name := range layerNames {
				if set&(1<<i) != 0 {
					names = append(names, name)
					expect = name
				}
			}

			if len(names) == 0 {
				names = append(names, "none")
			}

			t.Run("populated "+strings.Join(names, "+"), func(t *testing.T) {
				r := NewRegistry()
				api := &userAPI{Config: config.Map{}}

				defaults := config.Map{"method": "get"}
				if set&defaultLayer != 0 {
					defaults["sentinel"] = "default"
				}
				if set&classLayer != 0 {
					SetClassConfig[userAPI](r, config.Map{"sentinel": "class"})
				}
				if set&propertyLayer != 0 {
					api.Config["sentinel"] = "property"
				}
				if set&fieldLayer != 0 {
					api.BaseURLValue = "field"
					AddInstanceFieldMap(r, api, map[string]string{"sentinel": "baseURLValue"})
				}
				if set&methodLayer != 0 {
					err := AddInstanceMethodConfig[userAPI](r, (*userAPI).GetUser, MethodRecord{
						Config: config.Map{"sentinel": "method"},
					})
					require.NoError(t, err)
				}
				var args []any
				if set&extraLayer != 0 {
					args = append(args, config.Map{"sentinel": "extra"})
				}

				cfg, err := r.ResolveMergedConfig(api, api.GetUser, defaults, args...)
				require.NoError(t, err)
				require.Equal(t, expect, cfg["sentinel"])
			})
		}
	})

	t.Run("will only override the colliding keys", func(t *testing.T) {
		r := NewRegistry()
		api := &userAPI{
			Config:       config.Map{"headers": map[string]any{"appId": 1}},
			TimeoutValue: 15000,
		}
		SetClassConfig[userAPI](r, config.Map{
			"baseURL": "https://www.example.com",
			"timeout": 60000,
		})
		AddInstanceFieldMap(r, api, map[string]string{"timeout": "timeoutValue"})
		err := AddInstanceMethodConfig[userAPI](r, "GetUser", MethodRecord{
			Config: config.Map{"method": "get", "url": "/users"},
		})
		require.NoError(t, err)

		defaults := config.Map{
			"timeout": 30000,
			"headers": map[string]any{"token": "abc"},
		}
		cfg, err := r.ResolveMergedConfig(api, "GetUser", defaults)
		require.NoError(t, err)

		expect := config.Map{
			"baseURL": "https://www.example.com",
			"timeout": 15000,
			"method":  "get",
			"url":     "/users",
			"headers": map[string]any{"token": "abc", "appId": 1},
		}
		require.Equal(t, expect, cfg)
	})
}

func TestRegistry_ResolveMergedConfig(t *testing.T) {
	t.Run("will return an InvalidMethodError before consulting the registry", func(t *testing.T) {
		var r *Registry
		_, err := r.ResolveMergedConfig(&userAPI{}, 42, nil)

		var ierr InvalidMethodError
		if !assert.ErrorAs(t, err, &ierr) {
			return
		}
		if !assert.Equal(t, 42, ierr.Method) {
			return
		}
	})

	t.Run("will only use the defaults for an unregistered class", func(t *testing.T) {
		r := NewRegistry()
		cfg, err := r.ResolveMergedConfig(&userAPI{}, "GetUser", config.Map{"timeout": 1000})
		require.NoError(t, err)
		require.Equal(t, config.Map{"timeout": 1000}, cfg)
	})

	t.Run("will not modify the defaults", func(t *testing.T) {
		r := NewRegistry()
		SetClassConfig[userAPI](r, config.Map{"headers": map[string]any{"b": "2"}})

		defaults := config.Map{"headers": map[string]any{"a": "1"}}
		_, err := r.ResolveMergedConfig(&userAPI{}, "GetUser", defaults)
		require.NoError(t, err)
		require.Equal(t, config.Map{"headers": map[string]any{"a": "1"}}, defaults)
	})

	t.Run("will read field mapped properties live", func(t *testing.T) {
		r := NewRegistry()
		api := &userAPI{TimeoutValue: 1000}
		AddInstanceFieldMap(r, api, map[string]string{"timeout": "TimeoutValue"})

		cfg, err := r.ResolveMergedConfig(api, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, 1000, cfg["timeout"])

		api.TimeoutValue = 2000
		cfg, err = r.ResolveMergedConfig(api, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, 2000, cfg["timeout"])
	})

	t.Run("will read field mapped getters", func(t *testing.T) {
		r := NewRegistry()
		api := &userAPI{token: "abc"}
		AddInstanceFieldMap(r, api, map[string]string{"token": "token"})

		cfg, err := r.ResolveMergedConfig(api, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, "abc", cfg["token"])
	})

	t.Run("will skip absent field mapped properties", func(t *testing.T) {
		r := NewRegistry()
		api := &userAPI{}
		AddInstanceFieldMap(r, api, map[string]string{"timeout": "doesNotExist"})

		cfg, err := r.ResolveMergedConfig(api, "GetUser", config.Map{"timeout": 1})
		require.NoError(t, err)
		require.Equal(t, 1, cfg["timeout"])
	})

	t.Run("will ignore a config property which is not a mapping", func(t *testing.T) {
		type weird struct {
			Config string
		}

		r := NewRegistry()
		cfg, err := r.ResolveMergedConfig(&weird{Config: "nope"}, "GetUser", config.Map{"url": "/a"})
		require.NoError(t, err)
		require.Equal(t, config.Map{"url": "/a"}, cfg)
	})

	t.Run("will convert a struct config property using its config tags", func(t *testing.T) {
		type requestConfig struct {
			Timeout time.Duration `config:"timeout,omitempty"`
			URL     string        `config:"url,omitempty"`
		}
		type typed struct {
			Config requestConfig
		}

		r := NewRegistry()
		cfg, err := r.ResolveMergedConfig(&typed{Config: requestConfig{Timeout: time.Second}}, "GetUser", config.Map{"url": "/a"})
		require.NoError(t, err)
		require.Equal(t, config.Map{"url": "/a", "timeout": time.Second}, cfg)
	})

	t.Run("will read properties through a PropertyReader", func(t *testing.T) {
		r := NewRegistry()
		target := propertyMap{
			"config":       map[string]any{"url": "/from-config"},
			"timeoutValue": 42,
		}
		cfg, err := r.ResolveMergedConfig(target, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, config.Map{"url": "/from-config"}, cfg)
	})
}

type userAPIStatics struct {
	Config       config.Map
	TimeoutValue int
}

func TestRegistry_ResolveMergedConfig_Isolation(t *testing.T) {
	setup := func(t *testing.T) (*Registry, *userAPI, *userAPI, *userAPIStatics) {
		r := NewRegistry()
		a := &userAPI{
			Config:       config.Map{"headers": map[string]any{"who": "a"}},
			TimeoutValue: 1,
		}
		b := &userAPI{}
		statics := &userAPIStatics{
			Config:       config.Map{"headers": map[string]any{"who": "static"}},
			TimeoutValue: 3,
		}

		AddInstanceFieldMap(r, a, map[string]string{"timeout": "TimeoutValue"})
		AddStaticFieldMap[userAPI](r, map[string]string{"timeout": "TimeoutValue"})

		err := AddInstanceMethodConfig[userAPI](r, "GetUser", MethodRecord{
			Config: config.Map{"url": "/instance"},
		})
		require.NoError(t, err)
		err = AddStaticMethodConfig[userAPI](r, "GetUser", MethodRecord{
			Config: config.Map{"url": "/static"},
		})
		require.NoError(t, err)
		return r, a, b, statics
	}

	t.Run("will not leak instance A into instance B", func(t *testing.T) {
		r, _, b, _ := setup(t)

		cfg, err := r.ResolveMergedConfig(b, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, config.Map{"url": "/instance"}, cfg)
	})

	t.Run("will use instance A's own declarations", func(t *testing.T) {
		r, a, _, _ := setup(t)

		cfg, err := r.ResolveMergedConfig(a, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, config.Map{
			"url":     "/instance",
			"timeout": 1,
			"headers": map[string]any{"who": "a"},
		}, cfg)
	})

	t.Run("will use the static scope for a Class target", func(t *testing.T) {
		r, _, _, statics := setup(t)

		cfg, err := r.ResolveMergedConfig(ClassOf[userAPI](statics), "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, config.Map{
			"url":     "/static",
			"timeout": 3,
			"headers": map[string]any{"who": "static"},
		}, cfg)
	})

	t.Run("will accept a pointer to a Class", func(t *testing.T) {
		r, _, _, _ := setup(t)

		class := ClassOf[userAPI](nil)
		cfg, err := r.ResolveMergedConfig(&class, "GetUser", nil)
		require.NoError(t, err)
		require.Equal(t, config.Map{"url": "/static"}, cfg)
	})
}

func TestRegistry_ResolveLayers(t *testing.T) {
	t.Run("will return empty layers for a nil target", func(t *testing.T) {
		r := NewRegistry()
		layers, err := r.ResolveLayers(nil, "GetUser")
		require.NoError(t, err)
		require.Empty(t, layers.Class)
		require.Empty(t, layers.Property)
		require.Empty(t, layers.Field)
		require.Empty(t, layers.Method.Config)
	})

	t.Run("will return copies of the registered records", func(t *testing.T) {
		r := NewRegistry()
		SetClassConfig[userAPI](r, config.Map{"headers": map[string]any{"a": "1"}})

		layers, err := r.ResolveLayers(&userAPI{}, "GetUser")
		require.NoError(t, err)
		layers.Class["headers"].(map[string]any)["a"] = "changed"

		rec, _ := r.Lookup(userAPIType)
		require.Equal(t, config.Map{"headers": map[string]any{"a": "1"}}, rec.ClassConfig)
	})
}
