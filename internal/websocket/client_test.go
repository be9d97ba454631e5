// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/homeport/internal/models"
)

// serveHub upgrades every request and attaches the connection to hub
func serveHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		client := NewClient(hub, conn)
		hub.Register <- client
		client.Start()
	}))
	t.Cleanup(server.Close)
	return server
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readFrame reads one JSON frame into a generic map-backed message
func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil)
	b := NewClient(hub, nil)

	if a.hub != hub {
		t.Error("Client hub not set correctly")
	}
	if cap(a.send) != 256 {
		t.Errorf("Expected send channel capacity 256, got %d", cap(a.send))
	}
	if b.ID() <= a.ID() {
		t.Errorf("ids not increasing: %d then %d", a.ID(), b.ID())
	}
}

func TestClient_Constants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be shorter than pongWait %v", pingPeriod, pongWait)
	}
	if writeWait != 10*time.Second {
		t.Errorf("writeWait = %v", writeWait)
	}
}

func TestClient_SubscribeAndReceive(t *testing.T) {
	hub, _ := startHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))

	writeFrame(t, conn, Message{Type: MessageTypeSubscribe, InstanceID: "sonarr"})
	ack := readFrame(t, conn)
	if ack["type"] != MessageTypeSubscribed || ack["instanceId"] != "sonarr" {
		t.Fatalf("ack = %v", ack)
	}

	if err := hub.Publish(context.Background(), statsEvent("sonarr", 7)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != string(models.EventStats) {
		t.Fatalf("frame = %v", frame)
	}
	data, ok := frame["data"].(map[string]any)
	if !ok || data["n"] != float64(7) {
		t.Errorf("data = %v", frame["data"])
	}
}

func TestClient_PingPong(t *testing.T) {
	hub, _ := startHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))

	writeFrame(t, conn, Message{Type: MessageTypePing})
	if frame := readFrame(t, conn); frame["type"] != MessageTypePong {
		t.Errorf("frame = %v, want pong", frame)
	}
}

func TestClient_DisconnectReleasesInstance(t *testing.T) {
	demand := newRecordingDemand()
	hub, _ := startHub(t, WithDemand(demand))
	conn := dialWebSocket(t, serveHub(t, hub))

	writeFrame(t, conn, Message{Type: MessageTypeSubscribe, InstanceID: "sonarr"})
	readFrame(t, conn)
	demand.expect(t, "+sonarr")

	_ = conn.Close()

	demand.expect(t, "-sonarr")
	waitFor(t, func() bool { return hub.GetClientCount() == 0 }, "client removal")
}

func TestClient_HubShutdownClosesConnection(t *testing.T) {
	hub, stop := startHub(t)
	conn := dialWebSocket(t, serveHub(t, hub))
	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "client registration")

	_ = stop()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var frame map[string]any
	err := conn.ReadJSON(&frame)
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
		t.Errorf("ReadJSON() error = %v, want close", err)
	}
}

func TestClient_WritePump_ChannelClose(t *testing.T) {
	hub := NewHub()
	closed := make(chan error, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, err = conn.ReadMessage()
		closed <- err
	}))
	defer server.Close()

	conn := dialWebSocket(t, server)
	client := NewClient(hub, conn)
	go client.writePump()
	close(client.send)

	select {
	case err := <-closed:
		if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived) {
			t.Errorf("server read error = %v, want close frame", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("close frame not received")
	}
}
