// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package api provides the HTTP layer of Homeport.

The API lets a dashboard validate addresses, list configured instances,
issue credentialed requests against them, and control telemetry relays.
Live telemetry is delivered over a single browser WebSocket.

Key Components:

  - Router: chi route tree and middleware stack
  - Handler: endpoint handlers over the registry, gateway and relay manager
  - ResponseWriter: the success/error JSON envelope
  - ChiMiddleware: CORS, per-IP rate limits and security headers

Endpoints:

	GET    /api/v1/health              summary (always 200)
	GET    /api/v1/health/live         liveness
	GET    /api/v1/health/ready        readiness (503 until the hub runs)
	GET    /api/v1/ws                  browser socket (?token= accepted)
	POST   /api/v1/urls/validate       address policy verdict
	GET    /api/v1/instances           instances without credentials
	POST   /api/v1/instances/{id}/request
	GET    /api/v1/instances/{id}/relay
	POST   /api/v1/instances/{id}/relay
	DELETE /api/v1/instances/{id}/relay
	GET    /metrics                    Prometheus

Errors:

Gateway errors are mapped by kind: validation 400, upstream 502, timeout
504, transport and unavailable 503, unknown instance 404. Internal errors
answer 500 with a generic message and are logged with the request id.

Usage Example:

	handler := api.NewHandler(cfg, guard, reg, pool, relays, hub)
	router := api.NewRouter(handler, authMiddleware, api.NewChiMiddlewareFromConfig(&cfg.Security))
	srv := &http.Server{Addr: ":8480", Handler: router.SetupChi()}

See Also:

  - internal/gateway: credentialed REST client
  - internal/relay: graphql-ws relay manager
  - internal/websocket: browser fan-out hub
*/
package api
