// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/z5labs/mount"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// UnknownOutputError is returned for an output format which is not supported.
type UnknownOutputError struct {
	Format string
}

func (e UnknownOutputError) Error() string {
	return fmt.Sprintf("unknown output format: %s", e.Format)
}

func resolveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the effective request config of a declared method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCall(v, cmd, func(ctx context.Context, c call) error {
				m, err := c.resolve()
				if err != nil {
					return err
				}

				switch format := v.GetString("output"); format {
				case "json":
					enc := json.NewEncoder(c.out)
					enc.SetIndent("", "  ")
					return enc.Encode(m)
				case "yaml":
					enc := yaml.NewEncoder(c.out)
					enc.SetIndent(2)
					err := enc.Encode(m)
					if err != nil {
						return err
					}
					return enc.Close()
				case "request":
					rc, err := mount.Decode(m)
					if err != nil {
						return err
					}
					u, err := rc.FullURL()
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.out, rc.HTTPMethod(), u)
					return err
				default:
					return UnknownOutputError{Format: format}
				}
			})
		},
	}

	cmd.Flags().StringP("output", "o", "json", "output format (json, yaml, request)")
	return cmd
}
