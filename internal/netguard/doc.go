// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package netguard validates operator-entered backend addresses so the gateway
cannot be turned into an SSRF proxy into its own network.

Every address passes through Validator.Canonicalize before any network call.
The result is a canonical base URL (scheme, host, optional port and base path)
that is safe to join with a relative request path. Destination ranges are
governed by a Policy:

	v := netguard.New(netguard.DefaultPolicy())
	u, err := v.Canonicalize(ctx, "http://192.168.1.20:8989/")
	// u.String() == "http://192.168.1.20:8989"

Name-based checks cannot see what a hostname resolves to at connect time, so
the validator also provides DialControl, a net.Dialer hook that re-applies the
policy to the peer IP. The gateway's HTTP transport and the relay's socket
dialer both install it.
*/
package netguard
