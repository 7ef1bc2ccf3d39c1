// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Inbound event names accepted from device connections.
const (
	EventDeviceHeartbeat = "device:heartbeat"
	EventDeviceStatus    = "device:status"
	EventVideoPlay       = "video:play"
	EventVideoPause      = "video:pause"
	EventVideoEnd        = "video:end"
)

// Inbound event names accepted from admin connections.
const (
	EventAdminSendToDevice = "admin:send-to-device"
	EventAdminBroadcast    = "admin:broadcast"
	EventAdminSendToUser   = "admin:send-to-user"
)

// Outbound event names emitted to the admin room.
const (
	EventDeviceStatusChanged = "device:status-changed"
	EventDeviceStatusUpdate  = "device:status-update"
	EventVideoStarted        = "video:started"
	EventVideoEnded          = "video:ended"
)

// Frame is the wire envelope for every WebSocket message: a named event
// with an opaque JSON payload. Payloads are decoded into the typed structs
// below at the dispatch boundary, never passed around as raw maps.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals data into a Frame. Marshal failures return a frame
// with an empty payload; event payloads are plain data structs and do
// not fail to marshal in practice.
func NewFrame(event string, data interface{}) Frame {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{Event: event}
	}
	return Frame{Event: event, Data: raw}
}

// VideoPlayPayload accompanies video:play.
type VideoPlayPayload struct {
	VideoID string `json:"videoId"`
}

// VideoPausePayload accompanies video:pause.
type VideoPausePayload struct {
	VideoID     string  `json:"videoId"`
	CurrentTime float64 `json:"currentTime"`
}

// VideoEndPayload accompanies video:end.
type VideoEndPayload struct {
	VideoID  string  `json:"videoId"`
	Duration float64 `json:"duration"`
}

// SendToDevicePayload accompanies admin:send-to-device.
type SendToDevicePayload struct {
	DeviceID string          `json:"deviceId" validate:"required"`
	Event    string          `json:"event" validate:"required"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// BroadcastPayload accompanies admin:broadcast.
type BroadcastPayload struct {
	Event   string          `json:"event" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SendToUserPayload accompanies admin:send-to-user.
type SendToUserPayload struct {
	UserID  string          `json:"userId" validate:"required"`
	Event   string          `json:"event" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusChangedNotification is broadcast to the admin room when a device
// connects or disconnects. This transient signal is the sole source of
// online/offline state.
type StatusChangedNotification struct {
	DeviceID  string       `json:"deviceId"`
	Status    DeviceStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}

// StatusUpdateNotification relays a device's raw status report to admins.
type StatusUpdateNotification struct {
	DeviceID  string          `json:"deviceId"`
	Status    json.RawMessage `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// VideoNotification relays playback milestones (video:started, video:ended)
// to the admin room.
type VideoNotification struct {
	DeviceID  string    `json:"deviceId"`
	VideoID   string    `json:"videoId"`
	Position  *float64  `json:"position,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
