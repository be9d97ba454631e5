// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package config

import (
	"time"

	"github.com/tomtom215/homeport/internal/gateway"
	"github.com/tomtom215/homeport/internal/netguard"
	"github.com/tomtom215/homeport/internal/relay"
	"github.com/tomtom215/homeport/internal/supervisor"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig          `koanf:"server"`
	Security   SecurityConfig        `koanf:"security"`
	Guard      netguard.Policy       `koanf:"guard"`
	Gateway    gateway.Config        `koanf:"gateway"`
	Relay      relay.Config          `koanf:"relay"`
	Supervisor supervisor.TreeConfig `koanf:"supervisor"`
	Logging    LoggingConfig         `koanf:"logging"`
	Services   []ServiceConfig       `koanf:"services"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds API authentication and credential settings
type SecurityConfig struct {
	// AuthMode is "jwt" (verify externally issued HS256 tokens) or "none".
	AuthMode    string `koanf:"auth_mode"`
	JWTSecret   string `koanf:"jwt_secret"`
	JWTIssuer   string `koanf:"jwt_issuer"`
	JWTAudience string `koanf:"jwt_audience"`

	// CredentialKey derives the AES key for "enc:" service credentials.
	// Falls back to JWTSecret when empty.
	CredentialKey string `koanf:"credential_key"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// ServiceConfig describes one backend instance. Secret fields may carry
// an "enc:" prefixed AES-256-GCM ciphertext.
type ServiceConfig struct {
	ID      string `koanf:"id" validate:"required,instance_id"`
	Type    string `koanf:"type" validate:"required,service_type"`
	Name    string `koanf:"name" validate:"max=128"`
	URL     string `koanf:"url" validate:"required,max=2048"`
	Enabled bool   `koanf:"enabled"`

	// Relay opens the telemetry relay at startup.
	Relay bool `koanf:"relay"`

	// Auth is api_key, basic, bearer or none; inferred from the fields
	// below when empty.
	Auth         string `koanf:"auth" validate:"omitempty,oneof=none api_key basic bearer"`
	APIKey       string `koanf:"api_key"`
	APIKeyHeader string `koanf:"api_key_header" validate:"max=128"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	Token        string `koanf:"token"`
}

// EffectiveCredentialKey returns the key used for "enc:" values.
func (s *SecurityConfig) EffectiveCredentialKey() string {
	if s.CredentialKey != "" {
		return s.CredentialKey
	}
	return s.JWTSecret
}
