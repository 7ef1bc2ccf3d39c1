// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package models

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AnalyticsKind is the playback event kind recorded for a device.
type AnalyticsKind string

const (
	AnalyticsVideoStart AnalyticsKind = "VIDEO_START"
	AnalyticsVideoPause AnalyticsKind = "VIDEO_PAUSE"
	AnalyticsVideoEnd   AnalyticsKind = "VIDEO_END"
)

// AnalyticsEvent is an append-only playback record. Position carries the
// pause position for VIDEO_PAUSE and the total duration for VIDEO_END;
// it is nil for VIDEO_START.
type AnalyticsEvent struct {
	ID        uuid.UUID       `json:"id"`
	DeviceID  string          `json:"deviceId"`
	VideoID   string          `json:"videoId"`
	Kind      AnalyticsKind   `json:"kind"`
	Position  *float64        `json:"position,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewAnalyticsEvent builds a record with a fresh id and timestamp.
func NewAnalyticsEvent(deviceID, videoID string, kind AnalyticsKind, position *float64) *AnalyticsEvent {
	return &AnalyticsEvent{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		VideoID:   videoID,
		Kind:      kind,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}
}
