// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package gateway

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/homeport/internal/models"
)

// Authenticator injects credentials into an outbound request.
type Authenticator interface {
	Apply(h http.Header)
	// Scheme names the mechanism for logs and the API; it never includes secrets.
	Scheme() string
}

// HeaderKeyAuth sends an API key in a named header.
type HeaderKeyAuth struct {
	Header string
	Key    string
}

func (a HeaderKeyAuth) Apply(h http.Header) { h.Set(a.Header, a.Key) }
func (a HeaderKeyAuth) Scheme() string      { return "header:" + a.Header }

// BasicAuth sends RFC 7617 credentials.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(h http.Header) {
	r := http.Request{Header: h}
	r.SetBasicAuth(a.Username, a.Password)
}
func (a BasicAuth) Scheme() string { return "basic" }

// BearerAuth sends a bearer or session token.
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Apply(h http.Header) { h.Set("Authorization", "Bearer "+a.Token) }
func (a BearerAuth) Scheme() string      { return "bearer" }

// NoAuth sends nothing.
type NoAuth struct{}

func (NoAuth) Apply(http.Header) {}
func (NoAuth) Scheme() string    { return "none" }

// DefaultKeyHeader returns the header a service type expects its API key in.
func DefaultKeyHeader(t models.ServiceType) string {
	switch t {
	case models.ServiceJellyfin, models.ServiceEmby:
		return "X-Emby-Token"
	case models.ServicePlex:
		return "X-Plex-Token"
	case models.ServiceUnraid:
		return "x-api-key"
	default:
		// *arr applications, Overseerr, Portainer and most others.
		return "X-Api-Key"
	}
}

// AuthenticatorFor selects the authenticator for an instance's credential.
func AuthenticatorFor(t models.ServiceType, cred models.Credential) (Authenticator, error) {
	switch kind := cred.EffectiveKind(); kind {
	case models.CredentialNone:
		return NoAuth{}, nil
	case models.CredentialAPIKey:
		if cred.APIKey == "" {
			return nil, fmt.Errorf("api_key credential has no key")
		}
		header := cred.Header
		if header == "" {
			header = DefaultKeyHeader(t)
		}
		return HeaderKeyAuth{Header: header, Key: cred.APIKey}, nil
	case models.CredentialBasic:
		if cred.Username == "" {
			return nil, fmt.Errorf("basic credential has no username")
		}
		return BasicAuth{Username: cred.Username, Password: cred.Password}, nil
	case models.CredentialBearer:
		if cred.Token == "" {
			return nil, fmt.Errorf("bearer credential has no token")
		}
		return BearerAuth{Token: cred.Token}, nil
	default:
		return nil, fmt.Errorf("unsupported credential kind %q", kind)
	}
}
