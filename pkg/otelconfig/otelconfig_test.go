// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocal(t *testing.T) {
	t.Run("will write finished spans to the writer", func(t *testing.T) {
		var buf bytes.Buffer
		tp, err := Local(Writer(&buf), ServiceName("mount")).Init(context.Background())
		if !assert.Nil(t, err) {
			return
		}

		_, span := tp.Tracer("otelconfig").Start(context.Background(), "GetUser")
		span.End()

		err = tp.Shutdown(context.Background())
		if !assert.Nil(t, err) {
			return
		}

		var exported struct {
			Name string `json:"Name"`
		}
		err = json.Unmarshal(buf.Bytes(), &exported)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "GetUser", exported.Name) {
			return
		}
	})
}

func TestNoop(t *testing.T) {
	t.Run("will not record spans", func(t *testing.T) {
		tp, err := Noop.Init(context.Background())
		if !assert.Nil(t, err) {
			return
		}

		_, span := tp.Tracer("otelconfig").Start(context.Background(), "GetUser")
		defer span.End()
		if !assert.False(t, span.IsRecording()) {
			return
		}
		if !assert.Nil(t, tp.Shutdown(context.Background())) {
			return
		}
	})
}
