// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package websocket

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/models"
)

// EventSink consumes events from authenticated device connections.
// The ingestor satisfies this.
type EventSink interface {
	LifecycleNotifier
	Heartbeat(ctx context.Context, deviceID string)
	StatusReport(ctx context.Context, deviceID string, status json.RawMessage)
	VideoStart(ctx context.Context, deviceID string, payload models.VideoPlayPayload)
	VideoPause(ctx context.Context, deviceID string, payload models.VideoPausePayload)
	VideoEnd(ctx context.Context, deviceID string, payload models.VideoEndPayload)
}

// Dispatcher routes inbound frames to the event sink or the command
// routing operations. Authorization is positional: device events are
// only dispatched for connections classified as devices, admin commands
// only for admins. Everything else is ignored.
//
// Malformed payloads degrade to a no-op. A bad frame must never take
// the connection down.
type Dispatcher struct {
	hub      *Hub
	sink     EventSink
	validate *validator.Validate
}

// NewDispatcher wires frame handling to the hub and sink.
func NewDispatcher(hub *Hub, sink EventSink) *Dispatcher {
	return &Dispatcher{
		hub:      hub,
		sink:     sink,
		validate: validator.New(),
	}
}

// HandleFrame implements FrameHandler.
func (d *Dispatcher) HandleFrame(ctx context.Context, c *Client, frame models.Frame) {
	switch c.Kind() {
	case auth.KindDevice:
		d.handleDeviceFrame(ctx, c, frame)
	case auth.KindAdmin:
		d.handleAdminFrame(c, frame)
	default:
		logging.Debug().
			Uint64("client_id", c.ID()).
			Str("event", frame.Event).
			Msg("Ignoring frame from non-privileged user connection")
	}
}

func (d *Dispatcher) handleDeviceFrame(ctx context.Context, c *Client, frame models.Frame) {
	deviceID := c.DeviceID()
	switch frame.Event {
	case models.EventDeviceHeartbeat:
		d.sink.Heartbeat(ctx, deviceID)

	case models.EventDeviceStatus:
		d.sink.StatusReport(ctx, deviceID, frame.Data)

	case models.EventVideoPlay:
		var payload models.VideoPlayPayload
		if !d.decode(c, frame, &payload) {
			return
		}
		d.sink.VideoStart(ctx, deviceID, payload)

	case models.EventVideoPause:
		var payload models.VideoPausePayload
		if !d.decode(c, frame, &payload) {
			return
		}
		d.sink.VideoPause(ctx, deviceID, payload)

	case models.EventVideoEnd:
		var payload models.VideoEndPayload
		if !d.decode(c, frame, &payload) {
			return
		}
		d.sink.VideoEnd(ctx, deviceID, payload)

	default:
		logging.Debug().
			Str("device_id", deviceID).
			Str("event", frame.Event).
			Msg("Unknown device event ignored")
	}
}

func (d *Dispatcher) handleAdminFrame(c *Client, frame models.Frame) {
	switch frame.Event {
	case models.EventAdminSendToDevice:
		var payload models.SendToDevicePayload
		if !d.decodeValid(c, frame, &payload) {
			return
		}
		d.hub.SendToDevice(payload.DeviceID, payload.Event, payload.Payload)

	case models.EventAdminBroadcast:
		var payload models.BroadcastPayload
		if !d.decodeValid(c, frame, &payload) {
			return
		}
		d.hub.BroadcastToAllDevices(payload.Event, payload.Payload)

	case models.EventAdminSendToUser:
		var payload models.SendToUserPayload
		if !d.decodeValid(c, frame, &payload) {
			return
		}
		d.hub.SendToUser(payload.UserID, payload.Event, payload.Payload)

	default:
		logging.Debug().
			Uint64("client_id", c.ID()).
			Str("event", frame.Event).
			Msg("Unknown admin event ignored")
	}
}

// decode unmarshals a frame payload, logging and skipping on failure.
func (d *Dispatcher) decode(c *Client, frame models.Frame, out any) bool {
	if len(frame.Data) == 0 {
		logging.Debug().
			Uint64("client_id", c.ID()).
			Str("event", frame.Event).
			Msg("Frame missing payload, ignored")
		return false
	}
	if err := json.Unmarshal(frame.Data, out); err != nil {
		logging.Debug().Err(err).
			Uint64("client_id", c.ID()).
			Str("event", frame.Event).
			Msg("Malformed frame payload, ignored")
		return false
	}
	return true
}

// decodeValid additionally enforces the payload's validate tags, used
// for admin commands where a missing target would route nowhere.
func (d *Dispatcher) decodeValid(c *Client, frame models.Frame, out any) bool {
	if !d.decode(c, frame, out) {
		return false
	}
	if err := d.validate.Struct(out); err != nil {
		logging.Debug().Err(err).
			Uint64("client_id", c.ID()).
			Str("event", frame.Event).
			Msg("Invalid frame payload, ignored")
		return false
	}
	return true
}
