// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/homeport/internal/relay"
)

// HealthStatus summarizes gateway health.
type HealthStatus struct {
	Status        string         `json:"status"`
	Uptime        float64        `json:"uptime_seconds"`
	Instances     int            `json:"instances"`
	RelaysByState map[string]int `json:"relays_by_state"`
	HubRunning    bool           `json:"hub_running"`
	HubClients    int            `json:"hub_clients"`
}

// Health returns a summary of instances, relay states and browser clients.
// It answers 200 even when degraded; use HealthReady for gating traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:        "healthy",
		Uptime:        time.Since(h.startTime).Seconds(),
		RelaysByState: make(map[string]int),
	}

	if instances, err := h.registry.List(r.Context()); err == nil {
		status.Instances = len(instances)
	}
	if h.relays != nil {
		for _, info := range h.relays.Snapshot() {
			status.RelaysByState[info.State.String()]++
			if info.State == relay.StateErrored {
				status.Status = "degraded"
			}
		}
	}
	if h.wsHub != nil {
		status.HubRunning = h.wsHub.Running()
		status.HubClients = h.wsHub.GetClientCount()
	}
	if !status.HubRunning {
		status.Status = "degraded"
	}

	rw.Success(status)
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only once the browser hub is running.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	hubRunning := h.wsHub != nil && h.wsHub.Running()
	data := map[string]any{
		"hub_running":    hubRunning,
		"ready_to_serve": hubRunning,
		"uptime":         time.Since(h.startTime).Seconds(),
	}

	rw := NewResponseWriter(w, r)
	if !hubRunning {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "not ready", data)
		return
	}
	rw.Success(data)
}
