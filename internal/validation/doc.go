// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator and translates field errors into
// the API's VALIDATION_ERROR envelope. Config sections and API request bodies
// both validate through it.
//
// # Quick Start
//
//	type RequestBody struct {
//	    Method string `json:"method" validate:"required,gateway_method"`
//	    Path   string `json:"path" validate:"required,max=2048"`
//	}
//
//	if verr := validation.ValidateStruct(&body); verr != nil {
//	    rw.ValidationError(verr.Error(), verr.Details())
//	    return
//	}
//
// Field names in errors follow the json tag, then the koanf tag, so a bad
// request body reports "path" and a bad config section reports "url".
//
// # Custom Tags
//
//   - instance_id: lowercase slug, 1-64 characters of a-z 0-9 '-' '_'
//   - service_type: one of models.ServiceTypes
//   - gateway_method: GET, POST, PUT or DELETE (case-insensitive)
//
// Address safety is not a struct tag. It needs policy and DNS and lives in
// internal/netguard.
package validation
