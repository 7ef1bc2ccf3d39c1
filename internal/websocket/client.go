// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/metrics"
	"github.com/screenfleet/screenfleet/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// Room names. A connection's room set is computed once at admission and
// never changes for the life of the connection.
const RoomAdmin = "admin"

// DeviceRoom returns the room holding exactly the one device connection.
func DeviceRoom(deviceID string) string { return "device:" + deviceID }

// UserRoom returns the room holding exactly the one user connection.
func UserRoom(userID string) string { return "user:" + userID }

// clientIDCounter generates unique, monotonically increasing client ids
// so broadcast iteration has a stable, deterministic order.
var clientIDCounter atomic.Uint64

// FrameHandler processes one inbound frame from an admitted connection.
// A client's frames are handled strictly in arrival order.
type FrameHandler interface {
	HandleFrame(ctx context.Context, c *Client, frame models.Frame)
}

// Client is one admitted connection: the middleman between a websocket
// link and the hub. Identity is fixed at admission; exactly one of
// deviceID or userID is set.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	handler  FrameHandler
	kind     auth.ConnKind
	deviceID string
	userID   string
	rooms    []string

	send    chan models.Frame
	inbound chan models.Frame

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient builds a client for an authenticated identity. The room set
// is derived here and attached immutably.
func NewClient(hub *Hub, conn *websocket.Conn, identity *auth.Identity, handler FrameHandler) *Client {
	c := &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		handler: handler,
		kind:    identity.Kind,
		send:    make(chan models.Frame, hub.sendBuffer),
		inbound: make(chan models.Frame, hub.dispatchBuffer),
		done:    make(chan struct{}),
	}
	switch identity.Kind {
	case auth.KindDevice:
		c.deviceID = identity.Device.ID
		c.rooms = []string{DeviceRoom(c.deviceID)}
	case auth.KindAdmin:
		c.userID = identity.User.ID
		c.rooms = []string{UserRoom(c.userID), RoomAdmin}
	default:
		c.userID = identity.User.ID
		c.rooms = []string{UserRoom(c.userID)}
	}
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 { return c.id }

// Kind returns the connection classification fixed at admission.
func (c *Client) Kind() auth.ConnKind { return c.kind }

// DeviceID returns the device id for device connections, else "".
func (c *Client) DeviceID() string { return c.deviceID }

// UserID returns the user id for user and admin connections, else "".
func (c *Client) UserID() string { return c.userID }

// Rooms returns the room set computed at admission.
func (c *Client) Rooms() []string { return c.rooms }

// Enqueue hands an outbound frame to the write pump without blocking.
// A connection whose send queue is full loses the frame; delivery here
// is best-effort and never waits on a slow peer. The send channel is
// never closed, so enqueueing to a closing connection is a silent drop,
// not a panic.
func (c *Client) Enqueue(frame models.Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.DispatchQueueDrops.Inc()
		logging.Warn().
			Uint64("client_id", c.id).
			Str("event", frame.Event).
			Msg("Send queue full, dropping frame")
		return false
	}
}

// Close halts the client's pumps. Safe to call more than once and from
// any goroutine; the subsequent read error drives the normal
// unregistration path.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Start begins the read, write, and dispatch loops.
func (c *Client) Start() {
	go c.writePump()
	go c.dispatchPump()
	go c.readPump()
}

// readPump reads frames off the wire and feeds the dispatch queue.
// The push into the queue blocks when full: backpressure stalls only
// this connection's reads, and no inbound frame is ever dropped.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		c.hub.drop(c)
		if c.kind == auth.KindDevice {
			c.hub.deviceClosed(c.deviceID)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame models.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Unexpected websocket close")
			}
			return
		}
		select {
		case c.inbound <- frame:
		case <-c.done:
			return
		}
	}
}

// dispatchPump runs the per-connection handler loop. One goroutine per
// connection keeps a single connection's events ordered while slow
// persistence on one connection never stalls another.
func (c *Client) dispatchPump() {
	ctx := context.Background()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.inbound:
			c.handler.HandleFrame(ctx, c, frame)
		}
	}
}

// writePump pumps outbound frames to the websocket connection and keeps
// the link alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Failed to write frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
