// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/metrics"
	"github.com/tomtom215/homeport/internal/models"
)

// connection is one live subscription socket. The reader goroutine is the
// only consumer of the socket; writes are serialised by writeMu.
type connection struct {
	instanceID string
	manager    *Manager
	log        zerolog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	state atomic.Int32

	activeMu sync.Mutex
	active   map[string]struct{}

	// ending is claimed exactly once by whoever ends the connection: the
	// reader on a protocol or transport outcome, or teardown on request.
	ending   atomic.Bool
	released atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	connectedAt time.Time
	ackTimer    *time.Timer
}

func newConnection(m *Manager, instanceID string) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &connection{
		instanceID: instanceID,
		manager:    m,
		log:        m.log.With().Str("instance", instanceID).Logger(),
		active:     make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	metrics.RecordRelayTransition("", StateConnecting.String())
	return c
}

func (c *connection) State() State {
	return State(c.state.Load())
}

func (c *connection) setState(to State) {
	from := State(c.state.Swap(int32(to)))
	if from == to {
		return
	}
	metrics.RecordRelayTransition(from.String(), to.String())
	c.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("Relay state transition")
}

func (c *connection) activeIDs() []string {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	return ids
}

func (c *connection) isActive(id string) bool {
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	_, ok := c.active[id]
	return ok
}

func (c *connection) send(msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.manager.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// start runs the reader and, when configured, the acknowledgement deadline.
func (c *connection) start() {
	if d := c.manager.cfg.AckTimeout; d > 0 {
		c.ackTimer = time.AfterFunc(d, func() {
			if c.State() == StateInitializing {
				c.fail(models.ErrorCodeTimeout, &gwerrors.TimeoutError{Op: "connection_ack", Timeout: d})
			}
		})
	}
	go c.readLoop()
}

func (c *connection) readLoop() {
	defer close(c.done)
	defer c.cancelAckTimer()

	readTimeout := c.manager.cfg.ReadTimeout
	for {
		if readTimeout > 0 {
			if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				c.handleReadError(err)
				return
			}
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if stop := c.handle(data); stop {
			return
		}
	}
}

func (c *connection) cancelAckTimer() {
	if c.ackTimer != nil {
		c.ackTimer.Stop()
	}
}

// handle processes one frame and reports whether the reader should exit.
func (c *connection) handle(data []byte) bool {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Warn().Err(err).Msg("Ignoring unparseable relay frame")
		return false
	}
	metrics.RelayMessagesReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case msgConnectionAck:
		if c.State() != StateInitializing {
			return false
		}
		c.cancelAckTimer()
		c.setState(StateReady)

		id := uuid.NewString()
		c.activeMu.Lock()
		c.active[id] = struct{}{}
		c.activeMu.Unlock()

		payload, err := json.Marshal(startPayload{
			Query:         c.manager.cfg.Query,
			Variables:     c.manager.cfg.Variables,
			OperationName: c.manager.cfg.OperationName,
		})
		if err != nil {
			c.fail(models.ErrorCodeProtocol, err)
			return true
		}
		if err := c.send(message{Type: msgStart, ID: id, Payload: payload}); err != nil {
			c.fail(models.ErrorCodeTransport, &gwerrors.TransportError{InstanceID: c.instanceID, Op: "send start", Err: err})
			return true
		}
		c.log.Info().Str("subscription_id", id).Msg("Relay subscribed")

	case msgData:
		if c.State() != StateReady || !c.isActive(msg.ID) {
			return false
		}
		c.emit(models.NewStatsEvent(models.TelemetryEvent{
			InstanceID: c.instanceID,
			Payload:    msg.Payload,
			Timestamp:  time.Now().UTC(),
		}))

	case msgError:
		c.fail(models.ErrorCodeSubscriptionRejected, fmt.Errorf("subscription rejected by backend: %s", compact(msg.Payload)))
		return true

	case msgConnectionError:
		c.fail(models.ErrorCodeConnectionRejected, fmt.Errorf("connection rejected by backend: %s", compact(msg.Payload)))
		return true

	case msgComplete:
		c.activeMu.Lock()
		delete(c.active, msg.ID)
		remaining := len(c.active)
		c.activeMu.Unlock()
		if remaining == 0 && c.State() == StateReady {
			c.finish("completed")
			return true
		}

	case msgKeepAlive:

	default:
		c.log.Debug().Str("type", msg.Type).Msg("Unknown relay message type")
	}
	return false
}

func (c *connection) handleReadError(err error) {
	if c.ending.Load() {
		// teardown owns the outcome
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.finish("closed by backend")
		return
	}
	c.fail(models.ErrorCodeTransport, &gwerrors.TransportError{InstanceID: c.instanceID, Op: "read", Err: err})
}

// fail moves to Errored, emits an error event and closes the socket.
func (c *connection) fail(code string, err error) {
	if !c.ending.CompareAndSwap(false, true) {
		return
	}
	c.setState(StateErrored)
	c.log.Warn().Err(err).Str("code", code).Msg("Relay connection failed")
	c.emit(models.NewErrorEvent(c.instanceID, code, err))
	c.closeSocket(websocket.CloseNormalClosure)
	c.manager.release(c)
}

// finish moves to Closed, emits a closed event and closes the socket.
func (c *connection) finish(reason string) {
	if !c.ending.CompareAndSwap(false, true) {
		return
	}
	c.setState(StateClosed)
	c.log.Info().Str("reason", reason).Msg("Relay connection closed")
	c.emit(models.NewClosedEvent(c.instanceID, reason))
	c.closeSocket(websocket.CloseNormalClosure)
	c.manager.release(c)
}

func (c *connection) emit(ev models.RelayEvent) {
	metrics.RecordRelayEvent(string(ev.Type))
	if err := c.manager.sink.Publish(c.ctx, ev); err != nil {
		c.log.Error().Err(err).Str("event", string(ev.Type)).Msg("Relay event not delivered")
	}
}

func (c *connection) closeSocket(code int) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(time.Second),
	); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.log.Debug().Err(err).Msg("Failed to send close message")
	}
	if err := c.conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("Failed to close relay socket")
	}
}

// teardown stops every active subscription, closes the socket and waits for
// the reader to exit. It reports whether this call ended the connection; if
// the reader got there first it has already emitted the terminal event.
func (c *connection) teardown(ctx context.Context) bool {
	owner := c.ending.CompareAndSwap(false, true)
	if owner {
		c.cancelAckTimer()
		for _, id := range c.activeIDs() {
			if err := c.send(message{Type: msgStop, ID: id}); err != nil {
				c.log.Debug().Err(err).Str("subscription_id", id).Msg("Failed to send stop")
				break
			}
		}
		_ = c.send(message{Type: msgTerminate})
		c.closeSocket(websocket.CloseNormalClosure)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		// Unblock a reader stuck publishing to a slow sink.
		c.cancel()
		<-c.done
	}
	if owner {
		c.setState(StateClosed)
	}
	c.cancel()
	return owner
}

func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "no details"
	}
	const limit = 256
	s := string(raw)
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
