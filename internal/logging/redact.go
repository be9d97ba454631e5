// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package logging

import (
	"net/url"
	"strings"
)

// sensitiveQueryKeys are query parameters stripped from logged URLs.
var sensitiveQueryKeys = []string{"apikey", "api_key", "token", "x-plex-token", "access_token", "password"}

// MaskSecret masks a credential, keeping only the first and last 4 characters
// of long values. Short values are fully masked.
//
//	MaskSecret("0123456789abcdef0123") // "0123...0123"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 12 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// RedactURL renders a URL safe for logging: userinfo is removed and
// credential-bearing query parameters are masked. Unparseable input is
// replaced entirely.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable-url]"
	}
	u.User = nil
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			for _, sensitive := range sensitiveQueryKeys {
				if strings.EqualFold(key, sensitive) {
					q.Set(key, "***")
				}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
