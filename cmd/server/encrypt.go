// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/homeport/internal/config"
)

func newEncryptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Encrypt a service credential for the config file",
		Long: `Encrypt prints an "enc:" value that can replace a plaintext api_key,
password or token in the services section. The key is derived from
security.credential_key, or security.jwt_secret when that is empty.
With no argument the value is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			value, err := encryptInput(cmd, args)
			if err != nil {
				return err
			}

			enc, err := config.NewCredentialEncryptor(cfg.Security.EffectiveCredentialKey())
			if err != nil {
				return fmt.Errorf("credential key: %w", err)
			}
			out, err := enc.EncryptValue(value)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func encryptInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		if args[0] == "" {
			return "", errors.New("value must not be empty")
		}
		return args[0], nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read value from stdin: %w", err)
		}
		return "", errors.New("value must not be empty")
	}
	return line, nil
}
