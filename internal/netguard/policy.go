// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package netguard

import (
	"net/netip"
	"strings"
	"time"
)

// Policy decides which destination ranges an operator-entered address may
// point at. Unspecified, multicast and broadcast destinations are refused
// regardless of policy.
type Policy struct {
	// AllowLoopback permits 127.0.0.0/8, ::1 and localhost names.
	AllowLoopback bool `koanf:"allow_loopback"`

	// AllowPrivate permits RFC 1918, IPv6 ULA and carrier-grade NAT ranges.
	// Self-hosted backends almost always live here, so this is on by default.
	AllowPrivate bool `koanf:"allow_private"`

	// AllowLinkLocal permits 169.254.0.0/16 and fe80::/10, which include
	// cloud metadata endpoints.
	AllowLinkLocal bool `koanf:"allow_link_local"`

	// ResolveHostnames resolves names at validation time and checks every
	// resolved address. Dial-time checks apply either way.
	ResolveHostnames bool `koanf:"resolve_hostnames"`

	// BlockedHosts are hostnames refused outright (exact match or any subdomain).
	BlockedHosts []string `koanf:"blocked_hosts"`

	// ResolveCacheSize and ResolveCacheTTL bound the resolution cache.
	ResolveCacheSize int           `koanf:"resolve_cache_size"`
	ResolveCacheTTL  time.Duration `koanf:"resolve_cache_ttl"`
}

// DefaultPolicy allows private ranges and refuses loopback and link-local.
func DefaultPolicy() Policy {
	return Policy{
		AllowLoopback:    false,
		AllowPrivate:     true,
		AllowLinkLocal:   false,
		ResolveHostnames: false,
		BlockedHosts:     []string{"metadata.google.internal"},
		ResolveCacheSize: 256,
		ResolveCacheTTL:  time.Minute,
	}
}

// Rejection reason codes. They double as metric label values.
const (
	ReasonMalformed = "malformed"
	ReasonScheme    = "scheme"
	ReasonUserinfo  = "userinfo"
	ReasonQuery     = "query"
	ReasonPath      = "path"
	ReasonHost      = "host"
	ReasonPort      = "port"
	ReasonBlocked   = "blocked"
	ReasonLoopback  = "loopback"
	ReasonLinkLocal = "link_local"
	ReasonPrivate   = "private"
	ReasonResolve   = "resolve"
)

type addrClass int

const (
	classPublic addrClass = iota
	classPrivate
	classLoopback
	classLinkLocal
	classBlocked
)

var (
	cgnatPrefix       = netip.MustParsePrefix("100.64.0.0/10")
	thisNetworkPrefix = netip.MustParsePrefix("0.0.0.0/8")
	broadcastAddr     = netip.MustParseAddr("255.255.255.255")
)

func classify(a netip.Addr) addrClass {
	a = a.Unmap()
	switch {
	case a.IsUnspecified(), a.IsMulticast(), a == broadcastAddr:
		return classBlocked
	case a.Is4() && thisNetworkPrefix.Contains(a):
		return classBlocked
	case a.IsLoopback():
		return classLoopback
	case a.IsLinkLocalUnicast():
		return classLinkLocal
	case a.IsPrivate(), a.Is4() && cgnatPrefix.Contains(a):
		return classPrivate
	default:
		return classPublic
	}
}

// checkAddr returns the reason code refusing a, or "" when allowed.
func (p Policy) checkAddr(a netip.Addr) string {
	switch classify(a) {
	case classBlocked:
		return ReasonBlocked
	case classLoopback:
		if !p.AllowLoopback {
			return ReasonLoopback
		}
	case classLinkLocal:
		if !p.AllowLinkLocal {
			return ReasonLinkLocal
		}
	case classPrivate:
		if !p.AllowPrivate {
			return ReasonPrivate
		}
	}
	return ""
}

// checkName applies name-based rules to a non-IP host.
func (p Policy) checkName(host string) string {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		if !p.AllowLoopback {
			return ReasonLoopback
		}
	}
	for _, blocked := range p.BlockedHosts {
		blocked = strings.ToLower(strings.TrimSuffix(blocked, "."))
		if blocked == "" {
			continue
		}
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return ReasonBlocked
		}
	}
	return ""
}
