// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package models

import (
	"net/url"
	"time"
)

// ServiceType identifies the kind of backend an instance points at.
type ServiceType string

// Supported backend kinds.
const (
	ServiceSonarr       ServiceType = "sonarr"
	ServiceRadarr       ServiceType = "radarr"
	ServiceLidarr       ServiceType = "lidarr"
	ServiceReadarr      ServiceType = "readarr"
	ServiceProwlarr     ServiceType = "prowlarr"
	ServiceBazarr       ServiceType = "bazarr"
	ServiceOverseerr    ServiceType = "overseerr"
	ServiceJellyfin     ServiceType = "jellyfin"
	ServiceEmby         ServiceType = "emby"
	ServicePlex         ServiceType = "plex"
	ServiceTautulli     ServiceType = "tautulli"
	ServiceSABnzbd      ServiceType = "sabnzbd"
	ServiceQBittorrent  ServiceType = "qbittorrent"
	ServiceTransmission ServiceType = "transmission"
	ServicePortainer    ServiceType = "portainer"
	ServiceUnraid       ServiceType = "unraid"
	ServiceTrueNAS      ServiceType = "truenas"
	ServiceGeneric      ServiceType = "generic"
)

// ServiceTypes lists every supported backend kind.
var ServiceTypes = []ServiceType{
	ServiceSonarr, ServiceRadarr, ServiceLidarr, ServiceReadarr, ServiceProwlarr,
	ServiceBazarr, ServiceOverseerr, ServiceJellyfin, ServiceEmby, ServicePlex,
	ServiceTautulli, ServiceSABnzbd, ServiceQBittorrent, ServiceTransmission,
	ServicePortainer, ServiceUnraid, ServiceTrueNAS, ServiceGeneric,
}

// Valid reports whether t is a known backend kind.
func (t ServiceType) Valid() bool {
	for _, known := range ServiceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CredentialKind selects how a credential is presented to a backend.
type CredentialKind string

const (
	CredentialNone   CredentialKind = "none"
	CredentialAPIKey CredentialKind = "api_key"
	CredentialBasic  CredentialKind = "basic"
	CredentialBearer CredentialKind = "bearer"
)

// Credential is the secret material for one instance. Exactly one of the
// field groups is meaningful, selected by Kind.
type Credential struct {
	Kind CredentialKind `json:"kind"`

	// APIKey is sent in Header (or the service type's default header).
	APIKey string `json:"-"`
	Header string `json:"header,omitempty"`

	Username string `json:"-"`
	Password string `json:"-"`

	// Token is a bearer or session token.
	Token string `json:"-"`
}

// EffectiveKind infers the kind when Kind is unset.
func (c Credential) EffectiveKind() CredentialKind {
	if c.Kind != "" {
		return c.Kind
	}
	switch {
	case c.APIKey != "":
		return CredentialAPIKey
	case c.Token != "":
		return CredentialBearer
	case c.Username != "":
		return CredentialBasic
	default:
		return CredentialNone
	}
}

// ServiceInstance is one configured connection to a backend. The core only
// reads instances; they are owned by the service registry.
type ServiceInstance struct {
	ID          string      `json:"id"`
	Type        ServiceType `json:"type"`
	Name        string      `json:"name"`
	BaseAddress string      `json:"base_address"`
	Credential  Credential  `json:"-"`
	Enabled     bool        `json:"enabled"`

	// Relay marks instances whose telemetry relay is opened at startup.
	Relay bool `json:"relay"`
}

// OutboundRequest is one REST call against an instance. Path is always
// relative to the instance's base address.
type OutboundRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// InstanceStatus is the public view of an instance, safe to return from the API.
type InstanceStatus struct {
	ID           string         `json:"id"`
	Type         ServiceType    `json:"type"`
	Name         string         `json:"name"`
	BaseAddress  string         `json:"base_address"`
	Enabled      bool           `json:"enabled"`
	AuthKind     CredentialKind `json:"auth_kind"`
	RelayState   string         `json:"relay_state"`
	RelayEnabled bool           `json:"relay_enabled"`
	BreakerState string         `json:"breaker_state,omitempty"`
	CheckedAt    time.Time      `json:"checked_at"`
}
