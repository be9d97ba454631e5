// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/homeport/internal/config"
	"github.com/tomtom215/homeport/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "homeport",
		Short:         "Self-hosted service gateway and telemetry relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		// Running the bare binary starts the server.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: $"+config.ConfigPathEnvVar+" or ./config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newEncryptCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// loadConfig loads configuration and initializes the global logger from it.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}
