// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/z5labs/mount"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const usersDeclaration = `
defaults:
  headers:
    appId: cli
class:
  baseURL: {{ env "USERS_URL" }}
  timeout: 60000
properties:
  timeoutValue: 15000
fields:
  timeout: timeoutValue
methods:
  getUser:
    config:
      method: get
      url: /users/:id
  createUser:
    config:
      method: post
      url: /users
static:
  properties:
    config:
      headers:
        scope: static
  methods:
    listUsers:
      config:
        url: /users
      hasParams: true
`

func writeDeclaration(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := New()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestResolve(t *testing.T) {
	t.Setenv("USERS_URL", "https://users.example.com")
	path := writeDeclaration(t, "users.yaml", usersDeclaration)

	t.Run("will print the merged config of an instance method", func(t *testing.T) {
		out, _, err := execute(t, "resolve", "-f", path, "-m", "getUser", "--arg", `{"id":7}`)
		if !assert.Nil(t, err) {
			return
		}

		var m map[string]any
		err = json.Unmarshal([]byte(out), &m)
		if !assert.Nil(t, err) {
			return
		}

		expect := map[string]any{
			"headers": map[string]any{"appId": "cli"},
			"baseURL": "https://users.example.com",
			"timeout": float64(15000),
			"method":  "get",
			"url":     "/users/7",
		}
		if !assert.Equal(t, expect, m) {
			return
		}
	})

	t.Run("will print the merged config of a static method", func(t *testing.T) {
		out, _, err := execute(t, "resolve", "-f", path, "-m", "listUsers", "--static", "--arg", `{"page":2}`)
		if !assert.Nil(t, err) {
			return
		}

		var m map[string]any
		err = json.Unmarshal([]byte(out), &m)
		if !assert.Nil(t, err) {
			return
		}

		expect := map[string]any{
			"headers": map[string]any{"appId": "cli", "scope": "static"},
			"baseURL": "https://users.example.com",
			"timeout": float64(60000),
			"url":     "/users",
			"params":  map[string]any{"page": float64(2)},
		}
		if !assert.Equal(t, expect, m) {
			return
		}
	})

	t.Run("will print the config as yaml", func(t *testing.T) {
		out, _, err := execute(t, "resolve", "-f", path, "-m", "getUser", "-a", `{"id":7}`, "-o", "yaml")
		if !assert.Nil(t, err) {
			return
		}

		var m map[string]any
		err = yaml.Unmarshal([]byte(out), &m)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "/users/7", m["url"]) {
			return
		}
		if !assert.Equal(t, 15000, m["timeout"]) {
			return
		}
	})

	t.Run("will print the request line", func(t *testing.T) {
		out, _, err := execute(t, "resolve", "-f", path, "-m", "getUser", "-a", `{"id":7}`, "-o", "request")
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "GET https://users.example.com/users/7\n", out) {
			return
		}
	})

	t.Run("will read json declarations", func(t *testing.T) {
		jsonPath := writeDeclaration(t, "users.json", `{
			"class": {"baseURL": "https://json.example.com"},
			"methods": {"getUser": {"config": {"url": "/users/:id"}}}
		}`)

		out, _, err := execute(t, "resolve", "-f", jsonPath, "-m", "getUser", "-a", `{"id":1}`, "-o", "request")
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "GET https://json.example.com/users/1\n", out) {
			return
		}
	})

	t.Run("will override the declared defaults from the environment", func(t *testing.T) {
		t.Setenv(DefaultsEnvPrefix+"appName", "env")

		out, _, err := execute(t, "resolve", "-f", path, "-m", "getUser")
		if !assert.Nil(t, err) {
			return
		}

		var m map[string]any
		err = json.Unmarshal([]byte(out), &m)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "env", m["appName"]) {
			return
		}
	})

	t.Run("will read flags from the environment", func(t *testing.T) {
		t.Setenv("MOUNT_FILE", path)
		t.Setenv("MOUNT_METHOD", "createUser")

		out, _, err := execute(t, "resolve", "-o", "request")
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "POST https://users.example.com/users\n", out) {
			return
		}
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if no declaration file is given", func(t *testing.T) {
			_, _, err := execute(t, "resolve", "-m", "getUser")
			if !assert.ErrorIs(t, err, ErrNoFile) {
				return
			}
		})

		t.Run("if no method is given", func(t *testing.T) {
			_, _, err := execute(t, "resolve", "-f", path)
			if !assert.ErrorIs(t, err, ErrNoMethod) {
				return
			}
		})

		t.Run("if the declaration file does not exist", func(t *testing.T) {
			_, _, err := execute(t, "resolve", "-f", filepath.Join(t.TempDir(), "missing.yaml"), "-m", "getUser")
			if !assert.ErrorIs(t, err, os.ErrNotExist) {
				return
			}
		})

		t.Run("if an argument is not json", func(t *testing.T) {
			_, _, err := execute(t, "resolve", "-f", path, "-m", "getUser", "-a", `{"id":7}`, "-a", "nope")

			var aerr InvalidArgumentError
			if !assert.ErrorAs(t, err, &aerr) {
				return
			}
			if !assert.Equal(t, 1, aerr.Index) {
				return
			}
		})

		t.Run("if the output format is unknown", func(t *testing.T) {
			_, _, err := execute(t, "resolve", "-f", path, "-m", "getUser", "-o", "xml")

			var oerr UnknownOutputError
			if !assert.ErrorAs(t, err, &oerr) {
				return
			}
			if !assert.Equal(t, "xml", oerr.Format) {
				return
			}
		})

		t.Run("if the trace exporter is unknown", func(t *testing.T) {
			_, _, err := execute(t, "resolve", "-f", path, "-m", "getUser", "--trace", "zipkin")

			var eerr UnknownExporterError
			if !assert.ErrorAs(t, err, &eerr) {
				return
			}
			if !assert.Equal(t, "zipkin", eerr.Name) {
				return
			}
		})
	})
}

func TestDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/7":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":7,"appId":%q}`, r.Header.Get("appId"))
		case "/users":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "no such user")
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("USERS_URL", srv.URL)
	path := writeDeclaration(t, "users.yaml", usersDeclaration)

	t.Run("will print the response body", func(t *testing.T) {
		out, _, err := execute(t, "do", "-f", path, "-m", "getUser", "-a", `{"id":7}`)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.JSONEq(t, `{"id":7,"appId":"cli"}`, out) {
			return
		}
	})

	t.Run("will print the status code and headers", func(t *testing.T) {
		out, _, err := execute(t, "do", "-f", path, "-m", "createUser", "-a", `{"name":"gopher"}`, "-i")
		if !assert.Nil(t, err) {
			return
		}

		lines := strings.Split(out, "\n")
		if !assert.Equal(t, "201", lines[0]) {
			return
		}
		if !assert.Contains(t, out, "Content-Length: 0\n") {
			return
		}
	})

	t.Run("will print the body of a rejected response", func(t *testing.T) {
		out, _, err := execute(t, "do", "-f", path, "-m", "getUser", "-a", `{"id":8}`)

		var serr mount.StatusError
		if !assert.ErrorAs(t, err, &serr) {
			return
		}
		if !assert.Equal(t, http.StatusNotFound, serr.Response.StatusCode) {
			return
		}
		if !assert.Equal(t, "no such user", out) {
			return
		}
	})

	t.Run("will accept the given status codes", func(t *testing.T) {
		out, _, err := execute(t, "do", "-f", path, "-m", "getUser", "-a", `{"id":8}`, "--accept-status", "2xx,404")
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "no such user", out) {
			return
		}
	})

	t.Run("will not send simulated requests", func(t *testing.T) {
		t.Setenv(DefaultsEnvPrefix+"simulated", "true")

		out, _, err := execute(t, "do", "-f", path, "-m", "getUser", "-a", `{"id":9}`)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, fmt.Sprintf("simulated GET %s/users/9\n", srv.URL), out) {
			return
		}
	})

	t.Run("will export spans to stderr", func(t *testing.T) {
		_, errOut, err := execute(t, "do", "-f", path, "-m", "getUser", "-a", `{"id":7}`, "--trace", "stdout")
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Contains(t, errOut, `"Name":"getUser"`) {
			return
		}
	})

	t.Run("will retry failed requests", func(t *testing.T) {
		t.Run("if --retries is set", func(t *testing.T) {
			var attempts atomic.Int32
			flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				fmt.Fprint(w, `{"id":7}`)
			}))
			t.Cleanup(flaky.Close)

			t.Setenv("USERS_URL", flaky.URL)
			flakyPath := writeDeclaration(t, "users.yaml", usersDeclaration)

			out, _, err := execute(
				t,
				"do", "-f", flakyPath, "-m", "getUser", "-a", `{"id":7}`,
				"--retries", "3", "--retry-wait-min", "1ms", "--retry-wait-max", "5ms",
			)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.JSONEq(t, `{"id":7}`, out) {
				return
			}
			if !assert.Equal(t, int32(3), attempts.Load()) {
				return
			}
		})
	})

	t.Run("will not retry failed requests", func(t *testing.T) {
		t.Run("if --retries is not set", func(t *testing.T) {
			var attempts atomic.Int32
			flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			t.Cleanup(flaky.Close)

			t.Setenv("USERS_URL", flaky.URL)
			flakyPath := writeDeclaration(t, "users.yaml", usersDeclaration)

			_, _, err := execute(t, "do", "-f", flakyPath, "-m", "getUser", "-a", `{"id":7}`)

			var serr mount.StatusError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			if !assert.Equal(t, http.StatusServiceUnavailable, serr.Response.StatusCode) {
				return
			}
			if !assert.Equal(t, int32(1), attempts.Load()) {
				return
			}
		})
	})

	t.Run("will stop sending requests", func(t *testing.T) {
		t.Run("if the circuit opens after --trip-after failures", func(t *testing.T) {
			var attempts atomic.Int32
			down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			t.Cleanup(down.Close)

			t.Setenv("USERS_URL", down.URL)
			downPath := writeDeclaration(t, "users.yaml", usersDeclaration)

			_, _, err := execute(
				t,
				"do", "-f", downPath, "-m", "getUser", "-a", `{"id":7}`,
				"--retries", "2", "--retry-wait-min", "1ms", "--retry-wait-max", "5ms",
				"--trip-after", "1",
			)
			if !assert.ErrorIs(t, err, gobreaker.ErrOpenState) {
				return
			}
			if !assert.Equal(t, int32(1), attempts.Load()) {
				return
			}
		})
	})

	t.Run("will log at the given level", func(t *testing.T) {
		_, errOut, err := execute(t, "do", "-f", path, "-m", "getUser", "-a", `{"id":7}`, "--log-level", "debug")
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Contains(t, errOut, "resolved request config") {
			return
		}
	})
}
