// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which will apply its config from the
// environment variables of the current process whose names start
// with prefix. The prefix is stripped and the remainder is used as
// the key verbatim, e.g. MOUNT_baseURL=https://example.com sets
// "baseURL" for the prefix "MOUNT_".
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	m := make(Map)
	env := src.environ()
	for _, pair := range env {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, found := strings.CutPrefix(k, src.prefix)
		if !found || name == "" {
			continue
		}
		m[name] = v
	}
	return m.Apply(store)
}
