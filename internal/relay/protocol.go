// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homeport/internal/gateway"
	"github.com/tomtom215/homeport/internal/models"
)

// graphql-ws message types.
const (
	msgConnectionInit  = "connection_init"
	msgConnectionAck   = "connection_ack"
	msgConnectionError = "connection_error"
	msgKeepAlive       = "ka"
	msgStart           = "start"
	msgData            = "data"
	msgError           = "error"
	msgComplete        = "complete"
	msgStop            = "stop"
	msgTerminate       = "connection_terminate"
)

// message is the graphql-ws envelope. Payload is kept raw; only the envelope
// is ever parsed.
type message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type startPayload struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// authHeaders renders a credential as request headers for the upgrade request.
func authHeaders(cred models.Credential) (http.Header, error) {
	auth, err := gateway.AuthenticatorFor(models.ServiceGeneric, cred)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	auth.Apply(h)
	return h, nil
}

// initPayload carries the same credential inside connection_init, keyed by
// lower-case header name (e.g. {"x-api-key": "..."}), for servers that
// authenticate at the protocol level rather than on the upgrade request.
func initPayload(h http.Header) (json.RawMessage, error) {
	payload := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			payload[strings.ToLower(k)] = v[0]
		}
	}
	return json.Marshal(payload)
}
