// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"context"

	"github.com/tomtom215/homeport/internal/models"
)

// EventSink receives every relay event. Publish must not return until the
// event has been accepted or ctx is done; events for one instance arrive in
// socket order.
type EventSink interface {
	Publish(ctx context.Context, ev models.RelayEvent) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev models.RelayEvent) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, ev models.RelayEvent) error {
	return f(ctx, ev)
}

// ChannelSink delivers events on a channel.
type ChannelSink struct {
	ch chan models.RelayEvent
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan models.RelayEvent, buffer)}
}

// Publish blocks until the event is buffered or ctx is done.
func (s *ChannelSink) Publish(ctx context.Context, ev models.RelayEvent) error {
	select {
	case s.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side.
func (s *ChannelSink) Events() <-chan models.RelayEvent {
	return s.ch
}
