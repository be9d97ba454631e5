// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/metrics"
	"github.com/tomtom215/homeport/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	// Client to server
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePing        = "ping"

	// Server to client. Relay events keep their own type (stats, error, closed).
	MessageTypePong         = "pong"
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypeRejected     = "rejected"
)

// ErrHubStopped is returned by Publish once the hub has shut down.
var ErrHubStopped = errors.New("websocket hub stopped")

// Message represents a WebSocket message in either direction.
type Message struct {
	Type       string `json:"type"`
	InstanceID string `json:"instanceId,omitempty"`
	Data       any    `json:"data,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// Demand is told when a client subscribes to an instance and when an
// instance loses its last subscriber. Wanted may repeat for the same
// instance and must be idempotent. Calls are made from a single goroutine,
// in order, never from the hub loop itself.
type Demand interface {
	Wanted(ctx context.Context, instanceID string)
	Unwanted(ctx context.Context, instanceID string)
}

type demandEvent struct {
	instanceID string
	wanted     bool
}

type subscription struct {
	client     *Client
	instanceID string
	on         bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithDemand installs a Demand hook.
func WithDemand(d Demand) Option {
	return func(h *Hub) { h.demand = d }
}

// WithInstanceCheck installs a lookup used to refuse subscriptions to
// unknown instances.
func WithInstanceCheck(check func(ctx context.Context, instanceID string) error) Option {
	return func(h *Hub) { h.check = check }
}

// Hub keeps the set of connected browser clients and, per instance, the
// clients subscribed to it. Relay events are routed only to the
// subscribers of their instance.
type Hub struct {
	clients    map[*Client]bool
	subs       map[string]map[*Client]struct{}
	broadcast  chan models.RelayEvent
	subscribe  chan subscription
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	demand Demand
	check  func(ctx context.Context, instanceID string) error

	demandMu     sync.Mutex
	demandQueue  []demandEvent
	demandSignal chan struct{}

	stopped     chan struct{}
	stoppedOnce sync.Once
	running     atomic.Bool
}

// NewHub creates a new Hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		broadcast:    make(chan models.RelayEvent, 256),
		subscribe:    make(chan subscription, 64),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		clients:      make(map[*Client]bool),
		subs:         make(map[string]map[*Client]struct{}),
		demandSignal: make(chan struct{}, 1),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish hands a relay event to the hub. It blocks until the hub has
// accepted the event, ctx is done, or the hub has stopped.
func (h *Hub) Publish(ctx context.Context, ev models.RelayEvent) error {
	select {
	case <-h.stopped:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrHubStopped
	}
}

// Attach registers client with the running hub. It fails when the hub has
// stopped or ctx ends first.
func (h *Hub) Attach(ctx context.Context, client *Client) error {
	select {
	case h.Register <- client:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether RunWithContext is active.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// DETERMINISM: priority-based selection keeps behavior predictable:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle and subscription changes
// - Priority 3: Relay events
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.running.Store(true)
	demandCtx, stopDemand := context.WithCancel(ctx)
	demandDone := make(chan struct{})
	go h.runDemand(demandCtx, demandDone)
	defer func() {
		stopDemand()
		<-demandDone
	}()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		case sub := <-h.subscribe:
			h.applySubscription(sub)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case sub := <-h.subscribe:
			h.applySubscription(sub)
		case ev := <-h.broadcast:
			h.routeEvent(ev)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Inc()
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	var released []string
	if ok {
		released = h.dropClientLocked(client)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	metrics.WSConnections.Dec()
	for _, id := range released {
		h.queueDemand(id, false)
	}
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

// dropClientLocked removes a client and all its subscriptions, closing its
// send channel. It returns the instances left without subscribers, sorted.
func (h *Hub) dropClientLocked(client *Client) []string {
	var released []string
	for id, set := range h.subs {
		if _, ok := set[client]; !ok {
			continue
		}
		delete(set, client)
		metrics.WSSubscriptions.Dec()
		if len(set) == 0 {
			delete(h.subs, id)
			released = append(released, id)
		}
	}
	delete(h.clients, client)
	close(client.send)
	sort.Strings(released)
	return released
}

func (h *Hub) applySubscription(sub subscription) {
	h.mu.Lock()
	if _, ok := h.clients[sub.client]; !ok {
		h.mu.Unlock()
		return
	}
	set := h.subs[sub.instanceID]
	_, already := set[sub.client]
	notify := false
	switch {
	case sub.on:
		if !already {
			if set == nil {
				set = make(map[*Client]struct{})
				h.subs[sub.instanceID] = set
			}
			set[sub.client] = struct{}{}
			metrics.WSSubscriptions.Inc()
		}
		// A repeated subscribe asks for the relay again, e.g. after it failed.
		notify = true
	case already:
		delete(set, sub.client)
		metrics.WSSubscriptions.Dec()
		if len(set) == 0 {
			delete(h.subs, sub.instanceID)
			notify = true
		}
	}
	h.mu.Unlock()

	ack := Message{Type: MessageTypeUnsubscribed, InstanceID: sub.instanceID}
	if sub.on {
		ack.Type = MessageTypeSubscribed
	}
	h.sendTo(sub.client, ack)

	if notify {
		h.queueDemand(sub.instanceID, sub.on)
	}
}

// routeEvent delivers a relay event to the subscribers of its instance in
// client-id order. Clients whose buffers are full are disconnected.
func (h *Hub) routeEvent(ev models.RelayEvent) {
	msg := Message{
		Type:       string(ev.Type),
		InstanceID: ev.InstanceID,
		Timestamp:  ev.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if len(ev.Payload) > 0 {
		msg.Data = ev.Payload
	}

	h.mu.Lock()
	targets := sortedClients(h.subs[ev.InstanceID])
	var slow []*Client
	for _, client := range targets {
		select {
		case client.send <- msg:
			metrics.WSMessagesSent.Inc()
		default:
			slow = append(slow, client)
		}
	}
	var released []string
	for _, client := range slow {
		released = append(released, h.dropClientLocked(client)...)
	}
	h.mu.Unlock()

	for _, client := range slow {
		metrics.WSConnections.Dec()
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Uint64("client_id", client.id).Str("instance_id", ev.InstanceID).Msg("dropping slow websocket client")
	}
	for _, id := range released {
		h.queueDemand(id, false)
	}
}

// sendTo queues a message for one client without blocking the hub.
func (h *Hub) sendTo(client *Client, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- msg:
		metrics.WSMessagesSent.Inc()
	default:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
	}
}

func sortedClients(set map[*Client]struct{}) []*Client {
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// queueDemand records the latest demand for an instance in a FIFO so the
// hub loop never waits on the Demand hook, which may itself be blocked
// publishing into the hub. A pending entry for the same instance is
// overwritten in place, so the queue holds at most one entry per instance.
func (h *Hub) queueDemand(instanceID string, wanted bool) {
	if h.demand == nil {
		return
	}
	h.demandMu.Lock()
	merged := false
	for i := range h.demandQueue {
		if h.demandQueue[i].instanceID == instanceID {
			h.demandQueue[i].wanted = wanted
			merged = true
			break
		}
	}
	if !merged {
		h.demandQueue = append(h.demandQueue, demandEvent{instanceID: instanceID, wanted: wanted})
	}
	h.demandMu.Unlock()
	select {
	case h.demandSignal <- struct{}{}:
	default:
	}
}

func (h *Hub) runDemand(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.demandSignal:
		}
		for {
			h.demandMu.Lock()
			if len(h.demandQueue) == 0 {
				h.demandMu.Unlock()
				break
			}
			ev := h.demandQueue[0]
			h.demandQueue = h.demandQueue[1:]
			h.demandMu.Unlock()

			if ctx.Err() != nil {
				return
			}
			if ev.wanted {
				h.demand.Wanted(ctx, ev.instanceID)
			} else {
				h.demand.Unwanted(ctx, ev.instanceID)
			}
		}
	}
}

// logGracefulShutdown closes all clients, marks the hub stopped and logs
// the shutdown. ctx.Err() is not logged as an error since cancellation is
// the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.running.Store(false)
	clientCount := h.GetClientCount()
	h.closeAllClients()
	h.stoppedOnce.Do(func() { close(h.stopped) })

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes every client in id order and clears the
// subscriber registry.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
	for _, set := range h.subs {
		metrics.WSSubscriptions.Sub(float64(len(set)))
	}
	h.subs = make(map[string]map[*Client]struct{})
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns how many clients are subscribed to an instance.
func (h *Hub) SubscriberCount(instanceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[instanceID])
}

// Subscriptions returns the subscriber count per instance.
func (h *Hub) Subscriptions() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.subs))
	for id, set := range h.subs {
		out[id] = len(set)
	}
	return out
}
