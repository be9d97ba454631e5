// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for AuthAttempts.
const (
	outcomeSuccess = "success"
	outcomeMissing = "missing"
	outcomeInvalid = "invalid"
)

var (
	// AuthAttempts counts authentication decisions.
	// Labels:
	//   - source: "header" or "query"
	//   - outcome: "success", "missing", "invalid"
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeport_auth_attempts_total",
			Help: "Total number of API authentication attempts",
		},
		[]string{"source", "outcome"},
	)
)
