// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package config loads and validates Homeport configuration.

# Configuration Sources

Koanf v2 layers three sources, later ones winning:

 1. Struct defaults (defaultConfig)
 2. YAML file: CONFIG_PATH, else config.yaml / config.yml / /etc/homeport/config.yaml
 3. Environment variables, through an explicit name mapping

Services are a list and can only come from the file.

# Sections

  - server: listener host/port, request timeout, shutdown timeout, environment
  - security: AUTH_MODE (jwt|none), JWT secret/issuer/audience, CORS, API rate limit, credential key
  - guard: outbound address policy (netguard.Policy)
  - gateway: request client timeout, response cap, per-instance rate limit and breaker
  - relay: graphql-ws endpoint, subprotocol, subscription query, timeouts
  - logging: level, format, caller
  - services: backend instances

# Example

	server:
	  port: 8480
	security:
	  auth_mode: jwt
	  jwt_secret: ${JWT_SECRET}
	guard:
	  allow_private: true
	services:
	  - id: sonarr
	    type: sonarr
	    url: http://10.0.0.5:8989
	    enabled: true
	    api_key: "enc:3q2+7w..."
	  - id: unraid
	    type: unraid
	    url: https://tower.lan
	    enabled: true
	    relay: true
	    api_key: "enc:9xk1..."

# Encrypted Credentials

api_key, password and token accept "enc:" values: AES-256-GCM with a key
derived by HKDF-SHA256 from security.credential_key (or jwt_secret when
unset). `homeport encrypt` produces them.

# Production Guards

With ENVIRONMENT=production, Validate refuses AUTH_MODE=none, wildcard CORS
with authentication, and guard.allow_loopback.
*/
package config
