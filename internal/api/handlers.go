// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/homeport/internal/config"
	"github.com/tomtom215/homeport/internal/gateway"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/netguard"
	"github.com/tomtom215/homeport/internal/registry"
	"github.com/tomtom215/homeport/internal/relay"
	ws "github.com/tomtom215/homeport/internal/websocket"
)

// Gateway issues credentialed requests against backend instances.
// *gateway.Pool satisfies it.
type Gateway interface {
	Request(ctx context.Context, inst models.ServiceInstance, method, path string, body any) (*gateway.Response, error)
	BreakerState(id string) string
}

// RelayController opens and closes telemetry relays. *relay.Manager
// satisfies it.
type RelayController interface {
	Subscribe(ctx context.Context, instanceID, baseAddress string, cred models.Credential) error
	Unsubscribe(ctx context.Context, instanceID string)
	State(instanceID string) relay.State
	Snapshot() []relay.ConnectionInfo
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrade (this file)
//   - handlers_helpers.go: body decoding and instance lookup
//   - handlers_health.go: liveness and readiness probes
//   - handlers_instances.go: instance listing and gateway requests
//   - handlers_relay.go: relay state, subscribe and unsubscribe
//   - handlers_urls.go: address validation
type Handler struct {
	config    *config.Config
	guard     *netguard.Validator
	registry  registry.Registry
	gateway   Gateway
	relays    RelayController
	wsHub     *ws.Hub
	startTime time.Time
}

// NewHandler creates a new API handler with all required dependencies.
//
// Example:
//
//	handler := api.NewHandler(cfg, guard, reg, pool, relays, hub)
//	router := api.NewRouter(handler, authMiddleware, chiMW)
//	http.ListenAndServe(":8480", router.SetupChi())
func NewHandler(cfg *config.Config, guard *netguard.Validator, reg registry.Registry, gw Gateway, relays RelayController, hub *ws.Hub) *Handler {
	return &Handler{
		config:    cfg,
		guard:     guard,
		registry:  reg,
		gateway:   gw,
		relays:    relays,
		wsHub:     hub,
		startTime: time.Now(),
	}
}

// WebSocket upgrades a browser connection and attaches it to the hub.
// Subscriptions are made over the socket itself.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil || !h.wsHub.Running() {
		logging.Warn().Msg("WebSocket connection rejected: hub not running")
		WriteError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.wsHub.Attach(ctx, client); err != nil {
		logging.Warn().Err(err).Msg("WebSocket client could not be attached")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	client.Start()
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; an empty one would bypass CORS.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
