// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/registry"
)

func newTestDemand(t *testing.T, instances ...models.ServiceInstance) (*Demand, *Manager) {
	t.Helper()
	reg, err := registry.NewStatic(instances)
	if err != nil {
		t.Fatalf("NewStatic() error = %v", err)
	}
	m, _ := newTestManager(t, DefaultConfig())
	return NewDemand(m, reg), m
}

func unraidInstance(id, addr string) models.ServiceInstance {
	return models.ServiceInstance{
		ID:          id,
		Type:        models.ServiceUnraid,
		BaseAddress: addr,
		Credential:  apiKey(),
		Enabled:     true,
	}
}

func TestDemand_WantedOpensAndUnwantedCloses(t *testing.T) {
	backend := newMockGraphQLServer(t)
	d, m := newTestDemand(t, unraidInstance("tower", backend.url()))
	ctx := context.Background()

	d.Wanted(ctx, "tower")
	conn := backend.accept(t)
	handshake(t, conn)
	waitForState(t, m, "tower", StateReady)

	// a second subscriber does not redial
	d.Wanted(ctx, "tower")
	time.Sleep(50 * time.Millisecond)
	if got := backend.upgrades.Load(); got != 1 {
		t.Errorf("upgrades = %d, want 1", got)
	}

	d.Unwanted(ctx, "tower")
	if got := m.State("tower"); got != StateIdle {
		t.Errorf("State() after Unwanted = %v, want idle", got)
	}
}

func TestDemand_AutostartStaysOpen(t *testing.T) {
	backend := newMockGraphQLServer(t)
	inst := unraidInstance("tower", backend.url())
	inst.Relay = true
	d, m := newTestDemand(t, inst)
	ctx := context.Background()

	d.Wanted(ctx, "tower")
	handshake(t, backend.accept(t))
	waitForState(t, m, "tower", StateReady)

	d.Unwanted(ctx, "tower")
	if !m.IsConnected("tower") {
		t.Error("autostart relay closed when demand dropped")
	}
}

func TestDemand_SkipsUnknownAndDisabled(t *testing.T) {
	backend := newMockGraphQLServer(t)
	inst := unraidInstance("tower", backend.url())
	inst.Enabled = false
	d, m := newTestDemand(t, inst)
	ctx := context.Background()

	d.Wanted(ctx, "tower")
	d.Wanted(ctx, "missing")
	time.Sleep(50 * time.Millisecond)

	if got := backend.upgrades.Load(); got != 0 {
		t.Errorf("upgrades = %d, want 0", got)
	}
	if got := m.State("tower"); got != StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
	// releasing an unknown instance is harmless
	d.Unwanted(ctx, "missing")
}
