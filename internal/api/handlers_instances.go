// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/relay"
)

// ListInstances returns every configured instance without credentials,
// with its relay and circuit breaker state.
func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	instances, err := h.registry.List(r.Context())
	if err != nil {
		rw.GatewayError(err)
		return
	}

	now := time.Now().UTC()
	out := make([]models.InstanceStatus, 0, len(instances))
	for i := range instances {
		out = append(out, h.instanceStatus(&instances[i], now))
	}
	rw.Success(out)
}

func (h *Handler) instanceStatus(inst *models.ServiceInstance, now time.Time) models.InstanceStatus {
	state := relay.StateIdle
	if h.relays != nil {
		state = h.relays.State(inst.ID)
	}
	var breaker string
	if h.gateway != nil {
		breaker = h.gateway.BreakerState(inst.ID)
	}
	return models.InstanceStatus{
		ID:           inst.ID,
		Type:         inst.Type,
		Name:         inst.Name,
		BaseAddress:  logging.RedactURL(inst.BaseAddress),
		Enabled:      inst.Enabled,
		AuthKind:     inst.Credential.EffectiveKind(),
		RelayState:   state.String(),
		RelayEnabled: inst.Relay,
		BreakerState: breaker,
		CheckedAt:    now,
	}
}

// InstanceRequest issues one credentialed request against an instance and
// returns the decoded backend response.
//
// Body: {"method": "GET", "path": "/api/v3/series", "body": {...}}
func (h *Handler) InstanceRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.GatewayRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	inst, ok := h.instanceFor(rw, r)
	if !ok {
		return
	}

	method := strings.ToUpper(req.Method)
	resp, err := h.gateway.Request(r.Context(), inst, method, req.Path, req.Body)
	if err != nil {
		rw.GatewayError(err)
		return
	}

	rw.Success(models.GatewayResponse{
		InstanceID: inst.ID,
		Method:     method,
		Path:       req.Path,
		Status:     resp.StatusCode,
		Body:       resp.Value(),
	})
}
