// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the mount command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/z5labs/mount"
	"github.com/z5labs/mount/config"
	"github.com/z5labs/mount/http/httpclient"
	"github.com/z5labs/mount/http/httpvalidate"
	"github.com/z5labs/mount/internal/try"
	"github.com/z5labs/mount/pkg/noop"
	"github.com/z5labs/mount/pkg/otelconfig"
	"github.com/z5labs/mount/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables every flag can be set by,
// e.g. MOUNT_FILE or MOUNT_OTLP_TARGET.
const EnvPrefix = "MOUNT"

// DefaultsEnvPrefix prefixes the environment variables which override
// the declared defaults, e.g. MOUNT_DEFAULTS_baseURL.
const DefaultsEnvPrefix = "MOUNT_DEFAULTS_"

// Errors for missing required flags.
var (
	ErrNoFile   = errors.New("no declaration file given")
	ErrNoMethod = errors.New("no method given")
)

// UnknownExporterError is returned for a trace exporter which is not supported.
type UnknownExporterError struct {
	Name string
}

func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown trace exporter: %s", e.Name)
}

// InvalidArgumentError is returned when an --arg value is not valid JSON.
type InvalidArgumentError struct {
	Index int
	Cause error
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("argument %d is not valid json: %s", e.Index, e.Cause)
}

func (e InvalidArgumentError) Unwrap() error {
	return e.Cause
}

// call is everything a subcommand needs to resolve or perform a single call.
type call struct {
	svc    *mount.Service
	target any
	method string
	args   []any
	out    io.Writer
}

// New returns the root mount command.
func New() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "mount",
		Short:         "Resolve and perform declared HTTP requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("file", "f", "", "declaration file (yaml or json)")
	flags.StringP("method", "m", "", "name of the declared method")
	flags.Bool("static", false, "resolve the static method instead of the instance method")
	flags.StringArrayP("arg", "a", nil, "json encoded call argument, may be repeated")
	flags.String("accept-status", "2xx", "accepted response status codes, e.g. 2xx,404,300-399")
	flags.String("log-level", "", "log level (debug, info, warn, error), logging is disabled if empty")
	flags.String("trace", "none", "trace exporter (none, stdout, otlp, gcp)")
	flags.String("otlp-target", "localhost:4317", "otlp collector address")
	flags.String("gcp-project", "", "google cloud project traces are exported to")
	flags.Int("retries", 0, "retry failed requests this many times")
	flags.Duration("retry-wait-min", 100*time.Millisecond, "minimum wait between retries")
	flags.Duration("retry-wait-max", 2*time.Second, "maximum wait between retries")
	flags.Uint32("trip-after", 0, "open the circuit after this many consecutive failures, 0 disables it")
	flags.Duration("trip-timeout", 30*time.Second, "how long an open circuit rejects requests")

	cmd.AddCommand(
		resolveCmd(v),
		doCmd(v),
	)
	return cmd
}

// Run executes the mount command with args.
func Run(ctx context.Context, args ...string) error {
	cmd := New()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (c call) resolve() (config.Map, error) {
	return c.svc.Resolve(c.target, c.method, c.args...)
}

// withCall builds the call described by the flags and hands it to f
// after which the tracer provider is flushed.
func withCall(v *viper.Viper, cmd *cobra.Command, f func(context.Context, call) error) (err error) {
	ctx := cmd.Context()

	tp, err := initTracerProvider(ctx, v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		try.Close(&err, closerFunc(func() error {
			return tp.Shutdown(shutdownCtx)
		}))
	}()

	rawArgs, err := cmd.Flags().GetStringArray("arg")
	if err != nil {
		return err
	}

	c, err := newCall(v, tp, rawArgs, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return f(ctx, c)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newCall(v *viper.Viper, tp otelconfig.TracerProvider, rawArgs []string, out, logOut io.Writer) (call, error) {
	file := v.GetString("file")
	if file == "" {
		return call{}, ErrNoFile
	}
	method := v.GetString("method")
	if method == "" {
		return call{}, ErrNoMethod
	}

	path, err := filepath.Abs(file)
	if err != nil {
		return call{}, err
	}
	d, err := readDeclaration(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return call{}, err
	}

	args, err := parseArgs(rawArgs)
	if err != nil {
		return call{}, err
	}

	r := store.NewRegistry()
	inst, class, err := d.register(r)
	if err != nil {
		return call{}, err
	}

	h, err := logHandler(logOut, v.GetString("log-level"))
	if err != nil {
		return call{}, err
	}

	accept, err := httpvalidate.Parse(v.GetString("accept-status"))
	if err != nil {
		return call{}, err
	}

	svc, err := mount.New(
		mount.Registry(r),
		mount.ValidateStatus(accept),
		mount.Defaults(d.Defaults),
		mount.DefaultsFrom(config.FromEnv(DefaultsEnvPrefix)),
		mount.LogHandler(h),
		mount.TracerProvider(tp),
		mount.ClientOptions(clientOptions(v)...),
	)
	if err != nil {
		return call{}, err
	}

	var target any = inst
	if v.GetBool("static") {
		target = class
	}

	c := call{
		svc:    svc,
		target: target,
		method: method,
		args:   args,
		out:    out,
	}
	return c, nil
}

func clientOptions(v *viper.Viper) []httpclient.Option {
	var opts []httpclient.Option
	if n := v.GetInt("retries"); n > 0 {
		opts = append(
			opts,
			httpclient.MaxRetries(n),
			httpclient.RetryWait(v.GetDuration("retry-wait-min"), v.GetDuration("retry-wait-max")),
		)
	}
	if n := v.GetUint32("trip-after"); n > 0 {
		opts = append(
			opts,
			httpclient.TripAfter(n),
			httpclient.OpenStateTimeout(v.GetDuration("trip-timeout")),
		)
	}
	return opts
}

func parseArgs(raw []string) ([]any, error) {
	args := make([]any, 0, len(raw))
	for i, s := range raw {
		var arg any
		err := json.Unmarshal([]byte(s), &arg)
		if err != nil {
			return nil, InvalidArgumentError{Index: i, Cause: err}
		}
		args = append(args, arg)
	}
	return args, nil
}

func logHandler(w io.Writer, level string) (slog.Handler, error) {
	if level == "" {
		return noop.LogHandler{}, nil
	}

	var l slog.Level
	err := l.UnmarshalText([]byte(level))
	if err != nil {
		return nil, err
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}), nil
}

func initTracerProvider(ctx context.Context, v *viper.Viper, w io.Writer) (otelconfig.TracerProvider, error) {
	var initer otelconfig.Initializer
	switch name := v.GetString("trace"); name {
	case "", "none":
		initer = otelconfig.Noop
	case "stdout":
		initer = otelconfig.Local(
			otelconfig.ServiceName("mount"),
			otelconfig.Writer(w),
		)
	case "otlp":
		initer = otelconfig.OTLP(
			otelconfig.ServiceName("mount"),
			otelconfig.OTLPTarget(v.GetString("otlp-target")),
		)
	case "gcp":
		initer = otelconfig.GoogleCloud(
			otelconfig.ServiceName("mount"),
			otelconfig.GoogleCloudProjectId(v.GetString("gcp-project")),
		)
	default:
		return nil, UnknownExporterError{Name: name}
	}
	return initer.Init(ctx)
}
