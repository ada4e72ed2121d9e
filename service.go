// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package mount

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/z5labs/mount/config"
	"github.com/z5labs/mount/http/httpclient"
	"github.com/z5labs/mount/http/httpvalidate"
	"github.com/z5labs/mount/internal/try"
	"github.com/z5labs/mount/pkg/maskslog"
	"github.com/z5labs/mount/pkg/noop"
	"github.com/z5labs/mount/pkg/otelslog"
	"github.com/z5labs/mount/pkg/slogfield"
	"github.com/z5labs/mount/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/mount"

type options struct {
	registry       *store.Registry
	sources        []config.Source
	client         *http.Client
	clientOpts     []httpclient.Option
	logHandler     slog.Handler
	maskedHeaders  []string
	tp             trace.TracerProvider
	validateStatus func(int) bool
}

// Option configures a [Service].
type Option func(*options)

// Registry sets the registry declarations are resolved from.
// It defaults to [store.Default].
func Registry(r *store.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// Defaults deep merges m into the default config of the [Service].
func Defaults(m config.Map) Option {
	return func(o *options) {
		o.sources = append(o.sources, m)
	}
}

// DefaultsFrom deep merges the config read from srcs into the default
// config of the [Service], e.g. a YAML file and the environment.
func DefaultsFrom(srcs ...config.Source) Option {
	return func(o *options) {
		o.sources = append(o.sources, srcs...)
	}
}

// HTTPClient sets the client requests are sent with. It defaults to
// a [httpclient.New] client sharing the log handler and tracer provider
// of the [Service].
func HTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// ClientOptions configures the default http client, e.g. with
// [httpclient.MaxRetries] or [httpclient.TripAfter]. They are ignored
// when [HTTPClient] is used.
func ClientOptions(opts ...httpclient.Option) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// LogHandler enables logging. Nothing is logged by default.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// MaskHeaders adds headers whose values are masked in logs. The
// Authorization, Proxy-Authorization and Cookie headers are always masked.
func MaskHeaders(names ...string) Option {
	return func(o *options) {
		o.maskedHeaders = append(o.maskedHeaders, names...)
	}
}

// TracerProvider sets the provider spans are recorded with. It defaults
// to the global provider.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tp = tp
	}
}

// ValidateStatus decides which response status codes are successful,
// see [httpvalidate] for common validators. By default any 2xx status
// is. A nil func accepts every status.
func ValidateStatus(f func(statusCode int) bool) Option {
	return func(o *options) {
		o.validateStatus = f
	}
}

// Response is the outcome of a request.
type Response struct {
	Config     RequestConfig
	StatusCode int
	Header     http.Header
	Body       []byte

	// Simulated responses carry Config only.
	Simulated bool
}

// Service resolves declared request configs and performs them.
type Service struct {
	registry       *store.Registry
	client         *http.Client
	log            *slog.Logger
	tracer         trace.Tracer
	validateStatus func(int) bool

	mu       sync.RWMutex
	defaults config.Map
}

// New returns a Service.
func New(opts ...Option) (*Service, error) {
	o := &options{
		registry:       store.Default,
		logHandler:     noop.LogHandler{},
		maskedHeaders:  []string{"Authorization", "Proxy-Authorization", "Cookie"},
		tp:             otel.GetTracerProvider(),
		validateStatus: httpvalidate.Success(),
	}
	for _, opt := range opts {
		opt(o)
	}

	m, err := config.Read(o.sources...)
	if err != nil {
		return nil, ConfigReadError{Cause: err}
	}

	maskOpts := make([]maskslog.Option, 0, len(o.maskedHeaders))
	for _, name := range o.maskedHeaders {
		maskOpts = append(maskOpts, maskslog.Attr(name, maskslog.AnonymousStringAttr))
	}
	h := maskslog.NewHandler(otelslog.NewHandler(o.logHandler), maskOpts...)

	client := o.client
	if client == nil {
		clientOpts := []httpclient.Option{
			httpclient.Name("mount"),
			httpclient.LogHandler(h),
			httpclient.TracerProvider(o.tp),
		}
		client = httpclient.New(append(clientOpts, o.clientOpts...)...)
	}

	s := &Service{
		registry:       o.registry,
		client:         client,
		log:            slog.New(h),
		tracer:         o.tp.Tracer(instrumentationName),
		validateStatus: o.validateStatus,
		defaults:       m.Map(),
	}
	return s, nil
}

// SetConfig deep merges m into the defaults of s, e.g. to add an
// authorization header once a token is known.
func (s *Service) SetConfig(m config.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults = config.Merge(s.defaults, m)
}

// Defaults returns a copy of the defaults of s.
func (s *Service) Defaults() config.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return config.Merge(s.defaults)
}

// Resolve returns the effective config of calling method on target with args.
func (s *Service) Resolve(target, method any, args ...any) (config.Map, error) {
	s.mu.RLock()
	defaults := s.defaults
	s.mu.RUnlock()

	m, err := s.registry.ResolveMergedConfig(target, method, defaults, args...)
	if err != nil {
		return nil, ResolveError{Cause: err}
	}
	return m, nil
}

// Do resolves the config of calling method on target with args and
// performs the request. Errors returned by the http.Client are
// returned unchanged.
func (s *Service) Do(ctx context.Context, target, method any, args ...any) (*Response, error) {
	spanName := "mount.Do"
	if name, err := store.MethodName(method); err == nil {
		spanName = name
	}

	spanCtx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	resp, err := s.do(spanCtx, span, target, method, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.ErrorContext(spanCtx, "request failed", slogfield.String("method", spanName), slogfield.Error(err))
		return resp, err
	}
	return resp, nil
}

func (s *Service) do(ctx context.Context, span trace.Span, target, method any, args []any) (*Response, error) {
	m, err := s.Resolve(target, method, args...)
	if err != nil {
		return nil, err
	}

	rc, err := Decode(m)
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(
		ctx,
		"resolved request config",
		slogfield.String("method", rc.HTTPMethod()),
		slogfield.String("base_url", rc.BaseURL),
		slogfield.String("url", rc.URL),
		slogfield.Duration("timeout", rc.Timeout),
		slogfield.StringMap("headers", rc.Headers),
		slogfield.Bool("simulated", rc.Simulated),
	)
	if rc.Simulated {
		span.SetAttributes(attribute.Bool("mount.simulated", true))
		return &Response{Config: rc, Simulated: true}, nil
	}

	if rc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	}

	req, err := rc.NewRequest(ctx)
	if err != nil {
		return nil, BuildRequestError{Cause: err}
	}
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
	)

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	body, err := readBody(httpResp.Body)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	resp := &Response{
		Config:     rc,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}
	if s.validateStatus != nil && !s.validateStatus(resp.StatusCode) {
		return resp, StatusError{Response: resp}
	}
	return resp, nil
}

func readBody(rc io.ReadCloser) (_ []byte, err error) {
	defer try.Close(&err, rc)
	return io.ReadAll(rc)
}

// Call performs the request like [Service.Do] and unmarshals the JSON
// response body into R. Simulated requests and empty bodies leave R
// as its zero value.
func Call[R any](ctx context.Context, s *Service, target, method any, args ...any) (R, error) {
	var r R
	resp, err := s.Do(ctx, target, method, args...)
	if err != nil {
		return r, err
	}
	if resp.Simulated || len(resp.Body) == 0 {
		return r, nil
	}

	err = json.Unmarshal(resp.Body, &r)
	if err != nil {
		return r, UnmarshalResponseError{Cause: err}
	}
	return r, nil
}
