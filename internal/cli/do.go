// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/z5labs/mount"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func doCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do",
		Short: "Perform the request of a declared method and print the response body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCall(v, cmd, func(ctx context.Context, c call) error {
				resp, err := c.svc.Do(ctx, c.target, c.method, c.args...)

				var serr mount.StatusError
				if errors.As(err, &serr) {
					resp = serr.Response
				}
				if resp == nil {
					return err
				}

				perr := printResponse(c.out, resp, v.GetBool("include"))
				return errors.Join(err, perr)
			})
		},
	}

	cmd.Flags().BoolP("include", "i", false, "print the status code and headers before the body")
	return cmd
}

func printResponse(w io.Writer, resp *mount.Response, include bool) error {
	if resp.Simulated {
		u, err := resp.Config.FullURL()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, "simulated", resp.Config.HTTPMethod(), u)
		return err
	}

	if include {
		_, err := fmt.Fprintln(w, resp.StatusCode)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(resp.Header))
		for name := range resp.Header {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			for _, value := range resp.Header[name] {
				_, err = fmt.Fprintf(w, "%s: %s\n", name, value)
				if err != nil {
					return err
				}
			}
		}

		_, err = fmt.Fprintln(w)
		if err != nil {
			return err
		}
	}

	_, err := w.Write(resp.Body)
	return err
}
