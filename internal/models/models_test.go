// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalyticsEvent(t *testing.T) {
	pos := 42.5
	ev := NewAnalyticsEvent("tv-01", "vid-9", AnalyticsVideoPause, &pos)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, "tv-01", ev.DeviceID)
	assert.Equal(t, "vid-9", ev.VideoID)
	assert.Equal(t, AnalyticsVideoPause, ev.Kind)
	require.NotNil(t, ev.Position)
	assert.Equal(t, 42.5, *ev.Position)
	assert.WithinDuration(t, time.Now().UTC(), ev.CreatedAt, time.Second)
}

func TestFrameRoundTrip(t *testing.T) {
	frame := NewFrame(EventDeviceStatusChanged, StatusChangedNotification{
		DeviceID:  "tv-02",
		Status:    DeviceOnline,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	var decoded Frame
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, EventDeviceStatusChanged, decoded.Event)

	var note StatusChangedNotification
	require.NoError(t, json.Unmarshal(decoded.Data, &note))
	assert.Equal(t, "tv-02", note.DeviceID)
	assert.Equal(t, DeviceOnline, note.Status)
}

func TestFramePartialPayloadDegrades(t *testing.T) {
	// A pause event missing currentTime decodes with the zero value; the
	// connection must not be failed for a missing field.
	var p VideoPausePayload
	require.NoError(t, json.Unmarshal([]byte(`{"videoId":"v1"}`), &p))
	assert.Equal(t, "v1", p.VideoID)
	assert.Zero(t, p.CurrentTime)
}

func TestUserIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
	assert.False(t, (&User{}).IsAdmin())
}

func TestUserPasswordHashNotSerialized(t *testing.T) {
	raw, err := json.Marshal(&User{ID: "u1", Email: "a@b.c", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}
