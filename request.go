// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mount

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/z5labs/mount/config"
)

// RequestConfig is the typed view of a resolved config.
type RequestConfig struct {
	URL     string `config:"url,omitempty"`
	Method  string `config:"method,omitempty"`
	BaseURL string `config:"baseURL,omitempty"`

	// Timeout of the whole request. Numbers are read as milliseconds.
	Timeout time.Duration `config:"timeout,omitempty"`

	Headers map[string]string `config:"headers,omitempty"`

	// Params are encoded as the query string.
	Params any `config:"params,omitempty"`

	// Data is the request body. []byte, string and io.Reader values are
	// sent as is, url.Values are form encoded and anything else is
	// encoded as JSON.
	Data any `config:"data,omitempty"`

	// Simulated requests are never sent.
	Simulated bool `config:"simulated,omitempty"`
}

// Decode decodes a resolved config. Keys without a RequestConfig
// field are ignored.
func Decode(m config.Map) (RequestConfig, error) {
	var rc RequestConfig
	err := config.Unmarshal(m, &rc)
	if err != nil {
		return RequestConfig{}, DecodeError{Cause: err}
	}
	return rc, nil
}

// HTTPMethod returns the upper cased method, GET if unset.
func (rc RequestConfig) HTTPMethod() string {
	if rc.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(rc.Method)
}

// FullURL joins URL onto BaseURL, unless URL is absolute, and appends
// the encoded Params to its query.
func (rc RequestConfig) FullURL() (*url.URL, error) {
	u, err := url.Parse(combineURL(rc.BaseURL, rc.URL))
	if err != nil {
		return nil, err
	}

	q, err := encodeParams(rc.Params)
	if err != nil {
		return nil, err
	}
	if q == "" {
		return u, nil
	}
	if u.RawQuery == "" {
		u.RawQuery = q
		return u, nil
	}
	u.RawQuery += "&" + q
	return u, nil
}

// NewRequest builds the http.Request described by rc. Timeout is not
// applied to ctx.
func (rc RequestConfig) NewRequest(ctx context.Context) (*http.Request, error) {
	u, err := rc.FullURL()
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeData(rc.Data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, rc.HTTPMethod(), u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range rc.Headers {
		req.Header.Set(k, v)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func isAbsoluteURL(s string) bool {
	if strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func combineURL(base, rel string) string {
	if base == "" || isAbsoluteURL(rel) {
		return rel
	}
	if rel == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

var timeType = reflect.TypeFor[time.Time]()

func encodeParams(params any) (string, error) {
	if params == nil {
		return "", nil
	}
	if vals, ok := params.(url.Values); ok {
		return vals.Encode(), nil
	}

	m, ok := config.ToMap(params)
	if !ok {
		return "", InvalidParamsError{Params: params}
	}

	vals := make(url.Values, len(m))
	for k, v := range m {
		addParam(vals, k, v)
	}
	return vals.Encode(), nil
}

func addParam(vals url.Values, k string, v any) {
	if v == nil {
		return
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type() == timeType:
		vals.Add(k, v.(time.Time).Format(time.RFC3339))
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8,
		rv.Kind() == reflect.Array:
		for i := range rv.Len() {
			addParam(vals, k, rv.Index(i).Interface())
		}
	default:
		vals.Add(k, fmt.Sprint(v))
	}
}

func encodeData(data any) (io.Reader, string, error) {
	switch d := data.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(d), "", nil
	case string:
		return strings.NewReader(d), "text/plain; charset=utf-8", nil
	case url.Values:
		return strings.NewReader(d.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		return d, "", nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}
