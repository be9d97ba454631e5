// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package netguard

import (
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/metrics"
)

// DialControl is a net.Dialer Control hook that applies the policy to the
// peer address actually being connected to, after DNS resolution.
func (v *Validator) DialControl(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		metrics.GuardDialBlocked.Inc()
		return &gwerrors.ValidationError{
			Field:  "address",
			Value:  address,
			Reason: fmt.Sprintf("unparseable dial address on %s", network),
			Code:   ReasonMalformed,
		}
	}
	if code := v.policy.checkAddr(ap.Addr()); code != "" {
		metrics.GuardDialBlocked.Inc()
		logging.Warn().
			Str("network", network).
			Str("peer", ap.Addr().String()).
			Str("reason", code).
			Msg("Outbound connection blocked at dial time")
		return &gwerrors.ValidationError{
			Field:  "address",
			Value:  address,
			Reason: fmt.Sprintf("destination %s is not allowed by policy", code),
			Code:   code,
		}
	}
	return nil
}

// Dialer returns a net.Dialer that enforces the policy on every connection.
func (v *Validator) Dialer(timeout time.Duration) *net.Dialer {
	return &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Control:   v.DialControl,
	}
}
