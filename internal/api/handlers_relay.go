// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/homeport/internal/relay"
)

// RelayStatus is the relay view returned by the relay endpoints.
type RelayStatus struct {
	InstanceID string                `json:"instance_id"`
	State      relay.State           `json:"state"`
	Connected  bool                  `json:"connected"`
	Connection *relay.ConnectionInfo `json:"connection,omitempty"`
}

func (h *Handler) relayStatus(instanceID string) RelayStatus {
	status := RelayStatus{InstanceID: instanceID, State: h.relays.State(instanceID)}
	status.Connected = status.State == relay.StateReady
	for _, info := range h.relays.Snapshot() {
		if info.InstanceID == instanceID {
			info := info
			status.Connection = &info
			break
		}
	}
	return status
}

// RelayState reports the relay state of one instance.
func (h *Handler) RelayState(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	inst, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.GatewayError(err)
		return
	}
	rw.Success(h.relayStatus(inst.ID))
}

// RelaySubscribe opens, or reopens, the telemetry relay for an instance.
// It answers 202 once connection_init has been sent; acknowledgement and
// streaming continue in the background and surface on the browser socket.
func (h *Handler) RelaySubscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	inst, ok := h.instanceFor(rw, r)
	if !ok {
		return
	}

	if err := h.relays.Subscribe(r.Context(), inst.ID, inst.BaseAddress, inst.Credential); err != nil {
		rw.GatewayError(err)
		return
	}
	rw.Accepted(h.relayStatus(inst.ID))
}

// RelayUnsubscribe closes the relay for an instance. Closing an instance
// without a relay succeeds.
func (h *Handler) RelayUnsubscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	inst, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.GatewayError(err)
		return
	}

	h.relays.Unsubscribe(r.Context(), inst.ID)
	rw.Success(h.relayStatus(inst.ID))
}
