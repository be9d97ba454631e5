// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package netguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/metrics"
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Result is the outcome of Validate.
type Result struct {
	OK        bool   `json:"ok"`
	Canonical string `json:"canonical,omitempty"`
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type resolution struct {
	addrs    []netip.Addr
	storedAt time.Time
}

// Validator is the single checkpoint every backend address passes through
// before any network call. It is safe for concurrent use.
type Validator struct {
	policy   Policy
	resolver Resolver
	cache    *lru.Cache[string, resolution]
}

// Option configures a Validator.
type Option func(*Validator)

// WithResolver replaces the default resolver.
func WithResolver(r Resolver) Option {
	return func(v *Validator) { v.resolver = r }
}

// New creates a Validator enforcing policy.
func New(policy Policy, opts ...Option) *Validator {
	if policy.ResolveCacheSize <= 0 {
		policy.ResolveCacheSize = DefaultPolicy().ResolveCacheSize
	}
	if policy.ResolveCacheTTL <= 0 {
		policy.ResolveCacheTTL = DefaultPolicy().ResolveCacheTTL
	}
	// lru.New only errors on a non-positive size, guarded above.
	cache, _ := lru.New[string, resolution](policy.ResolveCacheSize)

	v := &Validator{
		policy:   policy,
		resolver: net.DefaultResolver,
		cache:    cache,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy returns the enforced policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate checks raw and reports the canonical form or the reason it was refused.
func (v *Validator) Validate(ctx context.Context, raw string) Result {
	u, err := v.Canonicalize(ctx, raw)
	if err != nil {
		res := Result{Code: ReasonMalformed, Reason: err.Error()}
		var ve *gwerrors.ValidationError
		if errors.As(err, &ve) {
			res.Code = ve.Code
			res.Reason = ve.Reason
		}
		return res
	}
	return Result{OK: true, Canonical: u.String()}
}

// Canonicalize returns the canonical form of raw: lower-case scheme and host,
// default port elided, no userinfo, cleaned base path without trailing slash.
// Refusals are *gwerrors.ValidationError carrying one of the Reason codes.
func (v *Validator) Canonicalize(ctx context.Context, raw string) (*url.URL, error) {
	u, err := v.canonicalize(ctx, raw)
	if err != nil {
		code := ReasonMalformed
		var ve *gwerrors.ValidationError
		if errors.As(err, &ve) {
			code = ve.Code
		}
		metrics.RecordGuardResult(false, code)
		logging.Debug().
			Str("address", logging.RedactURL(raw)).
			Str("reason", code).
			Msg("Target address rejected")
		return nil, err
	}
	metrics.RecordGuardResult(true, "")
	return u, nil
}

func reject(code, raw, format string, args ...any) error {
	return &gwerrors.ValidationError{
		Field:  "address",
		Value:  logging.RedactURL(raw),
		Reason: fmt.Sprintf(format, args...),
		Code:   code,
	}
}

func (v *Validator) canonicalize(ctx context.Context, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, reject(ReasonMalformed, raw, "address is empty")
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return nil, reject(ReasonMalformed, raw, "address contains control characters")
		}
	}
	if strings.ContainsRune(raw, '\\') {
		return nil, reject(ReasonMalformed, raw, "address contains a backslash")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, reject(ReasonMalformed, raw, "address cannot be parsed")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, reject(ReasonScheme, raw, "scheme must be http or https, got %q", u.Scheme)
	}
	if u.Opaque != "" || u.Host == "" {
		return nil, reject(ReasonMalformed, raw, "host is required")
	}
	if u.User != nil {
		return nil, reject(ReasonUserinfo, raw, "embedded credentials are not allowed")
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" || strings.Contains(raw, "#") {
		return nil, reject(ReasonQuery, raw, "query strings and fragments are not allowed")
	}

	port, err := canonicalPort(scheme, u.Port())
	if err != nil {
		return nil, reject(ReasonPort, raw, "%v", err)
	}

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "%") {
		return nil, reject(ReasonHost, raw, "IPv6 zone identifiers are not allowed")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if code := v.policy.checkAddr(addr); code != "" {
			return nil, reject(code, raw, "destination %s is not allowed by policy", code)
		}
		host = addr.Unmap().String()
	} else {
		host = strings.TrimSuffix(host, ".")
		if err := checkHostname(host); err != nil {
			return nil, reject(ReasonHost, raw, "%v", err)
		}
		if code := v.policy.checkName(host); code != "" {
			return nil, reject(code, raw, "destination %s is not allowed by policy", code)
		}
		if v.policy.ResolveHostnames {
			if code, err := v.checkResolved(ctx, host); err != nil {
				return nil, reject(code, raw, "%v", err)
			}
		}
	}

	p, err := canonicalPath(u.Path)
	if err != nil {
		return nil, reject(ReasonPath, raw, "%v", err)
	}

	hostport := host
	if strings.Contains(host, ":") {
		hostport = "[" + host + "]"
	}
	if port != "" {
		hostport = net.JoinHostPort(host, port)
	}

	return &url.URL{Scheme: scheme, Host: hostport, Path: p}, nil
}

func canonicalPort(scheme, port string) (string, error) {
	if port == "" {
		return "", nil
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("port %q is out of range", port)
	}
	if (scheme == "http" && n == 80) || (scheme == "https" && n == 443) {
		return "", nil
	}
	return strconv.Itoa(n), nil
}

// checkHostname refuses anything that is not a plain DNS name, including
// shorthand and hex IPv4 forms such as 127.1, 0x7f.0.0.1 or 2130706433 that
// some resolvers would map to an address.
func checkHostname(host string) error {
	if host == "" || len(host) > 253 {
		return fmt.Errorf("hostname length is invalid")
	}
	labels := strings.Split(host, ".")
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("hostname %q has an empty or oversized label", host)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("hostname %q has a label starting or ending with '-'", host)
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
				return fmt.Errorf("hostname %q contains invalid character %q", host, r)
			}
		}
	}
	if looksNumeric(labels[len(labels)-1]) {
		return fmt.Errorf("numeric host %q is not a canonical IP address", host)
	}
	return nil
}

func looksNumeric(label string) bool {
	if strings.HasPrefix(label, "0x") {
		return true
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func canonicalPath(p string) (string, error) {
	if p == "" || p == "/" {
		return "", nil
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path traversal segments are not allowed")
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "/" || cleaned == "." {
		return "", nil
	}
	return strings.TrimSuffix(cleaned, "/"), nil
}

// checkResolved resolves host and applies the policy to every address.
func (v *Validator) checkResolved(ctx context.Context, host string) (string, error) {
	addrs, err := v.lookup(ctx, host)
	if err != nil {
		return ReasonResolve, fmt.Errorf("cannot resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return ReasonResolve, fmt.Errorf("%q resolved to no addresses", host)
	}
	for _, a := range addrs {
		if code := v.policy.checkAddr(a); code != "" {
			return code, fmt.Errorf("%q resolves to %s, destination %s is not allowed by policy", host, a, code)
		}
	}
	return "", nil
}

func (v *Validator) lookup(ctx context.Context, host string) ([]netip.Addr, error) {
	if entry, ok := v.cache.Get(host); ok {
		if time.Since(entry.storedAt) < v.policy.ResolveCacheTTL {
			return entry.addrs, nil
		}
		v.cache.Remove(host)
	}
	addrs, err := v.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	v.cache.Add(host, resolution{addrs: addrs, storedAt: time.Now()})
	return addrs, nil
}
