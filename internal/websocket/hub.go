// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/config"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/metrics"
	"github.com/screenfleet/screenfleet/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown
	// path (e.g. SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation
	// during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Routing outcomes for metrics and logs.
const (
	OutcomeDelivered = "delivered"
	OutcomeOffline   = "offline"
	OutcomeDropped   = "dropped"
)

// LifecycleNotifier receives device online/offline transitions. The
// ingestor satisfies this; the hub itself never touches persistence.
type LifecycleNotifier interface {
	ConnectionOpened(ctx context.Context, deviceID string)
	ConnectionClosed(ctx context.Context, deviceID string)
}

type roomFrame struct {
	room  string
	frame models.Frame
}

// Hub owns the session registry and the room fan-out. Admission and
// teardown mutate the registry synchronously under its lock; the run
// loop only drains the room broadcast queue, so no connection's I/O
// ever serializes behind another's.
type Hub struct {
	registry  *Registry
	lifecycle LifecycleNotifier

	sendBuffer     int
	dispatchBuffer int

	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	broadcast chan roomFrame
}

// NewHub creates a hub. lifecycle may be nil in tests that do not care
// about online/offline notifications.
func NewHub(cfg *config.HubConfig, lifecycle LifecycleNotifier) *Hub {
	broadcastBuffer := cfg.BroadcastBuffer
	if broadcastBuffer <= 0 {
		broadcastBuffer = 256
	}
	dispatchBuffer := cfg.DispatchBuffer
	if dispatchBuffer <= 0 {
		dispatchBuffer = 64
	}
	return &Hub{
		registry:       NewRegistry(),
		lifecycle:      lifecycle,
		sendBuffer:     256,
		dispatchBuffer: dispatchBuffer,
		rooms:          make(map[string]map[*Client]struct{}),
		clients:        make(map[*Client]struct{}),
		broadcast:      make(chan roomFrame, broadcastBuffer),
	}
}

// Registry exposes the session registry for diagnostics endpoints.
func (h *Hub) Registry() *Registry { return h.registry }

// Admit registers an authenticated client. By the time Admit returns
// the client is routable; a device also triggers the ONLINE
// notification. The caller starts the client's pumps afterwards.
// Rejected connections never reach this method.
func (h *Hub) Admit(ctx context.Context, c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	for _, room := range c.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	total := len(h.clients)
	h.mu.Unlock()

	switch c.kind {
	case auth.KindDevice:
		h.registry.RegisterDevice(c.deviceID, c)
	default:
		h.registry.RegisterUser(c.userID, c)
	}

	metrics.RecordConnectionOpened(string(c.kind))
	logging.Info().
		Uint64("client_id", c.id).
		Str("kind", string(c.kind)).
		Int("total_clients", total).
		Msg("Websocket client connected")

	if c.kind == auth.KindDevice && h.lifecycle != nil {
		h.lifecycle.ConnectionOpened(ctx, c.deviceID)
	}
}

// drop removes a client from the rooms and the registry. The registry
// removal is a compare-and-delete: if the device already reconnected,
// the fresher mapping survives this stale cleanup.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	for _, room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	switch c.kind {
	case auth.KindDevice:
		h.registry.UnregisterDevice(c.deviceID, c)
	default:
		h.registry.UnregisterUser(c.userID, c)
	}

	metrics.RecordConnectionClosed(string(c.kind))
	logging.Info().
		Uint64("client_id", c.id).
		Str("kind", string(c.kind)).
		Int("total_clients", total).
		Msg("Websocket client disconnected")
}

// deviceClosed runs after a device connection's teardown, on the
// connection's own goroutine so the OFFLINE persistence write never
// blocks the hub.
func (h *Hub) deviceClosed(deviceID string) {
	if h.lifecycle != nil {
		h.lifecycle.ConnectionClosed(context.Background(), deviceID)
	}
}

// SendToDevice routes one frame to a connected device. An unmapped
// device is not an error: the outcome is logged and the frame dropped
// (at-most-once, best-effort, no queueing).
func (h *Hub) SendToDevice(deviceID, event string, payload json.RawMessage) bool {
	c, ok := h.registry.LookupDevice(deviceID)
	if !ok {
		metrics.RecordCommandRouted(OutcomeOffline)
		logging.Info().
			Str("device_id", deviceID).
			Str("event", event).
			Msg("Device not connected, command not delivered")
		return false
	}
	if !c.Enqueue(models.Frame{Event: event, Data: payload}) {
		metrics.RecordCommandRouted(OutcomeDropped)
		return false
	}
	metrics.RecordCommandRouted(OutcomeDelivered)
	return true
}

// BroadcastToAllDevices delivers a frame to every device registered at
// call time. Devices connecting afterwards do not receive it.
func (h *Hub) BroadcastToAllDevices(event string, payload json.RawMessage) int {
	clients := h.registry.DeviceClients()
	delivered := 0
	for _, c := range clients {
		if c.Enqueue(models.Frame{Event: event, Data: payload}) {
			delivered++
		}
	}
	metrics.BroadcastsSent.Inc()
	logging.Debug().
		Str("event", event).
		Int("devices", len(clients)).
		Int("delivered", delivered).
		Msg("Broadcast to all devices")
	return delivered
}

// SendToUser routes one frame to a connected user, with the same
// best-effort semantics as SendToDevice.
func (h *Hub) SendToUser(userID, event string, payload json.RawMessage) bool {
	c, ok := h.registry.LookupUser(userID)
	if !ok {
		metrics.RecordCommandRouted(OutcomeOffline)
		logging.Info().
			Str("user_id", userID).
			Str("event", event).
			Msg("User not connected, command not delivered")
		return false
	}
	if !c.Enqueue(models.Frame{Event: event, Data: payload}) {
		metrics.RecordCommandRouted(OutcomeDropped)
		return false
	}
	metrics.RecordCommandRouted(OutcomeDelivered)
	return true
}

// BroadcastToAdmins queues a frame for every connection in the admin
// room. The run loop performs the fan-out; a full queue drops the frame
// rather than blocking the caller.
func (h *Hub) BroadcastToAdmins(frame models.Frame) {
	select {
	case h.broadcast <- roomFrame{room: RoomAdmin, frame: frame}:
	default:
		logging.Warn().Str("event", frame.Event).Msg("Broadcast channel full, dropping admin frame")
	}
}

// RunWithContext drains the room broadcast queue until ctx is canceled,
// then closes every client. Designed for suture supervision.
//
// Priority-based selection keeps behavior deterministic when several
// channels are ready: shutdown is always observed before the next
// broadcast.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case rf := <-h.broadcast:
			h.fanOut(rf)
		}
	}
}

// fanOut delivers a frame to a room's members in client-id order, so
// delivery order is reproducible under test.
func (h *Hub) fanOut(rf roomFrame) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[rf.room]))
	for c := range h.rooms[rf.room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		return members[i].id < members[j].id
	})
	for _, c := range members {
		c.Enqueue(rf.frame)
	}
}

// ClientCount returns the number of admitted connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", count).
		Msg("Websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients halts every client's pumps in id order. Each client's
// read loop then drives its own unregistration.
func (h *Hub) closeAllClients() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, c := range clients {
		c.Close()
	}
}
