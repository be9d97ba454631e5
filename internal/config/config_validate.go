// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateGuard,
		c.validateGateway,
		c.validateRelay,
		c.validateSupervisor,
		c.validateServices,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if c.Security.AuthMode == "jwt" {
		return c.validateJWTSecret()
	}
	return nil
}

// validateCORS rejects wildcard CORS in production with authentication
// enabled; any origin could then drive the API with a stolen token.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

// validateAuthMode checks the auth mode and refuses AUTH_MODE=none in production.
func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production. " +
			"Set AUTH_MODE=jwt or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateGuard validates the outbound address policy
func (c *Config) validateGuard() error {
	if c.Guard.ResolveHostnames && c.Guard.ResolveCacheSize < 1 {
		return fmt.Errorf("GUARD_RESOLVE_CACHE_SIZE must be at least 1 when hostname resolution is enabled")
	}
	if c.Guard.ResolveCacheTTL < 0 {
		return fmt.Errorf("GUARD_RESOLVE_CACHE_TTL must not be negative")
	}
	if c.Guard.AllowLoopback && c.IsProduction() {
		return fmt.Errorf("GUARD_ALLOW_LOOPBACK is not allowed when ENVIRONMENT=production")
	}
	return nil
}

// validateGateway validates the request client settings
func (c *Config) validateGateway() error {
	g := c.Gateway
	if g.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if g.MaxResponseBytes <= 0 {
		return fmt.Errorf("GATEWAY_MAX_RESPONSE_BYTES must be positive")
	}
	if g.RateLimit < 0 {
		return fmt.Errorf("GATEWAY_RATE_LIMIT must not be negative")
	}
	if g.RateLimit > 0 && g.RateBurst < 1 {
		return fmt.Errorf("GATEWAY_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if g.Breaker.Enabled {
		if g.Breaker.FailureRatio <= 0 || g.Breaker.FailureRatio > 1 {
			return fmt.Errorf("gateway.breaker.failure_ratio must be in (0, 1]")
		}
		if g.Breaker.Timeout <= 0 {
			return fmt.Errorf("GATEWAY_BREAKER_TIMEOUT must be positive")
		}
	}
	return nil
}

// validateRelay validates the subscription relay settings
func (c *Config) validateRelay() error {
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay configuration is invalid: %w", err)
	}
	return nil
}

// validateSupervisor rejects negative restart tuning; zero means default
func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold < 0 || s.FailureDecay < 0 || s.FailureBackoff < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("supervisor settings must not be negative")
	}
	return nil
}

// validateServices checks every service entry and that ids are unique
func (c *Config) validateServices() error {
	seen := make(map[string]bool, len(c.Services))
	for i := range c.Services {
		svc := &c.Services[i]
		if verr := validation.ValidateStruct(svc); verr != nil {
			return fmt.Errorf("services[%d]: %s", i, verr.Error())
		}
		if seen[svc.ID] {
			return fmt.Errorf("services[%d]: duplicate id %q", i, svc.ID)
		}
		seen[svc.ID] = true
		if err := validateServiceURL(svc.URL); err != nil {
			return fmt.Errorf("services[%d] (%s): %w", i, svc.ID, err)
		}
		if err := validateServiceAuth(svc); err != nil {
			return fmt.Errorf("services[%d] (%s): %w", i, svc.ID, err)
		}
	}
	return nil
}

// validateServiceAuth checks that the selected auth kind has its fields
func validateServiceAuth(svc *ServiceConfig) error {
	switch svc.Auth {
	case "api_key":
		if svc.APIKey == "" {
			return fmt.Errorf("api_key is required when auth is api_key")
		}
	case "basic":
		if svc.Username == "" {
			return fmt.Errorf("username is required when auth is basic")
		}
	case "bearer":
		if svc.Token == "" {
			return fmt.Errorf("token is required when auth is bearer")
		}
	}
	return nil
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, disabled")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
