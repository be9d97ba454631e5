// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/validation"
)

// maxRequestBodyBytes bounds JSON request bodies.
const maxRequestBodyBytes = 1 << 20

// sanitizeLogValue escapes control characters to prevent log injection
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// decodeAndValidate reads a bounded JSON body into dst and runs the struct
// validator. It writes the error response itself and returns false on failure.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(rw.w, r.Body, maxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return false
		}
		rw.BadRequest("failed to read request body")
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		rw.BadRequest("request body is required")
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return false
	}
	return true
}

// instanceFor resolves the {id} route parameter. Unknown ids answer 404;
// disabled instances answer 503.
func (h *Handler) instanceFor(rw *ResponseWriter, r *http.Request) (models.ServiceInstance, bool) {
	id := chi.URLParam(r, "id")
	inst, err := h.registry.Get(r.Context(), id)
	if err != nil {
		rw.GatewayError(err)
		return models.ServiceInstance{}, false
	}
	if !inst.Enabled {
		rw.GatewayError(&gwerrors.UnavailableError{InstanceID: inst.ID, Reason: "instance is disabled"})
		return models.ServiceInstance{}, false
	}
	return inst, true
}
