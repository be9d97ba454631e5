// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/homeport/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		ttl  time.Duration
		role string
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an API token signed with security.jwt_secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Security.AuthMode != auth.ModeJWT {
				return errors.New("tokens are only used with auth_mode jwt")
			}

			jwtManager, err := auth.NewJWTManager(&cfg.Security)
			if err != nil {
				return fmt.Errorf("jwt manager: %w", err)
			}
			token, err := jwtManager.GenerateToken(args[0], role, ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&role, "role", "", "optional role claim")
	return cmd
}
