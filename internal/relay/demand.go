// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"context"

	"github.com/tomtom215/homeport/internal/registry"
)

// Demand opens relays when browsers start watching an instance and closes
// them when the last one leaves. Instances marked for autostart stay open.
// It satisfies the websocket hub's Demand hook.
type Demand struct {
	manager  *Manager
	registry registry.Registry
}

// NewDemand creates a Demand over manager and reg.
func NewDemand(manager *Manager, reg registry.Registry) *Demand {
	return &Demand{manager: manager, registry: reg}
}

// Wanted opens the instance's relay unless one is already active. Failures
// are logged; they also reach subscribers as error events.
func (d *Demand) Wanted(ctx context.Context, instanceID string) {
	if d.manager.State(instanceID).Active() {
		return
	}
	inst, err := d.registry.Get(ctx, instanceID)
	if err != nil {
		d.manager.log.Warn().Err(err).Str("instance", instanceID).Msg("Relay requested for unknown instance")
		return
	}
	if !inst.Enabled {
		d.manager.log.Debug().Str("instance", instanceID).Msg("Relay not opened for disabled instance")
		return
	}
	if err := d.manager.Subscribe(ctx, inst.ID, inst.BaseAddress, inst.Credential); err != nil {
		d.manager.log.Warn().Err(err).Str("instance", instanceID).Msg("On-demand relay failed to open")
	}
}

// Unwanted closes the instance's relay unless it is configured to autostart.
func (d *Demand) Unwanted(ctx context.Context, instanceID string) {
	if inst, err := d.registry.Get(ctx, instanceID); err == nil && inst.Relay {
		return
	}
	d.manager.Unsubscribe(ctx, instanceID)
}
