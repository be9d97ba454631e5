// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultQuery is the subscription sent to every backend. It is a fixed
// contract: a backend whose schema rejects it reports subscription_rejected.
const DefaultQuery = `subscription HomeportSystemMetrics {
  systemMetricsCpu { percentTotal }
}`

// Config describes the subscription contract and connection timing.
type Config struct {
	// Endpoint is appended to the instance base path, e.g. "/graphql".
	Endpoint string `koanf:"endpoint"`

	// Subprotocol is offered during the upgrade.
	Subprotocol string `koanf:"subprotocol"`

	Query         string         `koanf:"query"`
	OperationName string         `koanf:"operation_name"`
	Variables     map[string]any `koanf:"variables"`

	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`

	// ReadTimeout and AckTimeout are disabled when zero. With AckTimeout
	// disabled a backend that never acknowledges stays Initializing until
	// unsubscribed.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	AckTimeout  time.Duration `koanf:"ack_timeout"`
}

// DefaultConfig returns the graphql-ws contract on /graphql.
func DefaultConfig() Config {
	return Config{
		Endpoint:         "/graphql",
		Subprotocol:      "graphql-ws",
		Query:            DefaultQuery,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Validate checks the subscription contract. A malformed contract is a
// startup configuration error.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.Endpoint, "/") || strings.HasPrefix(c.Endpoint, "//") || strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("relay endpoint %q must be a relative path starting with '/'", c.Endpoint)
	}
	if strings.ContainsAny(c.Endpoint, "?#\\") {
		return fmt.Errorf("relay endpoint %q must not contain a query, fragment or backslash", c.Endpoint)
	}
	if c.Subprotocol == "" {
		return errors.New("relay subprotocol is required")
	}
	if err := validateQuery(c.Query); err != nil {
		return err
	}
	if c.HandshakeTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("relay handshake and write timeouts must be positive")
	}
	if c.ReadTimeout < 0 || c.AckTimeout < 0 {
		return errors.New("relay read and ack timeouts must not be negative")
	}
	return nil
}

func validateQuery(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return errors.New("relay query is required")
	}
	keyword, rest := q, ""
	if end := strings.IndexFunc(q, func(r rune) bool { return unicode.IsSpace(r) || r == '{' || r == '(' }); end >= 0 {
		keyword, rest = q[:end], q[end:]
	}
	if keyword != "subscription" {
		return fmt.Errorf("relay query must be a subscription operation, got %q", keyword)
	}
	open, closing := strings.Count(rest, "{"), strings.Count(rest, "}")
	if open == 0 || open != closing {
		return errors.New("relay query has no selection set or unbalanced braces")
	}
	return nil
}
