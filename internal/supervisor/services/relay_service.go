// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/registry"
)

// autostartConcurrency bounds parallel dials at startup.
const autostartConcurrency = 4

// RelayManager matches *relay.Manager.
type RelayManager interface {
	Subscribe(ctx context.Context, instanceID, baseAddress string, cred models.Credential) error
	UnsubscribeAll(ctx context.Context) error
}

// RelayService opens the relays of autostart instances and closes every
// relay when the tree stops. A failed autostart is logged and reported to
// browsers as an error event; it does not fail the service.
type RelayService struct {
	manager     RelayManager
	registry    registry.Registry
	stopTimeout time.Duration
	name        string
}

// NewRelayService creates the service. A non-positive stopTimeout
// defaults to 5s.
func NewRelayService(manager RelayManager, reg registry.Registry, stopTimeout time.Duration) *RelayService {
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	return &RelayService{
		manager:     manager,
		registry:    reg,
		stopTimeout: stopTimeout,
		name:        "relay-manager",
	}
}

// Serve implements suture.Service.
func (s *RelayService) Serve(ctx context.Context) error {
	if err := s.autostart(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()
	if err := s.manager.UnsubscribeAll(stopCtx); err != nil {
		return fmt.Errorf("close relays: %w", err)
	}
	return ctx.Err()
}

func (s *RelayService) autostart(ctx context.Context) error {
	instances, err := s.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}

	log := logging.WithComponent("relay-autostart")
	var opened atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(autostartConcurrency)
	for _, inst := range instances {
		if !inst.Enabled || !inst.Relay {
			continue
		}
		g.Go(func() error {
			if err := s.manager.Subscribe(ctx, inst.ID, inst.BaseAddress, inst.Credential); err != nil {
				log.Warn().Err(err).Str("instance", inst.ID).Msg("Autostart relay failed")
				return nil
			}
			opened.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	log.Info().Int32("opened", opened.Load()).Msg("Autostart relays opened")
	return nil
}

// String implements fmt.Stringer for supervisor events.
func (s *RelayService) String() string {
	return s.name
}
