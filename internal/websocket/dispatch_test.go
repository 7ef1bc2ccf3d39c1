// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package websocket

import (
	"context"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenfleet/screenfleet/internal/models"
)

// fakeSink records every ingestor call.
type fakeSink struct {
	mu         sync.Mutex
	heartbeats []string
	statuses   []json.RawMessage
	starts     []models.VideoPlayPayload
	pauses     []models.VideoPausePayload
	ends       []models.VideoEndPayload
}

func (s *fakeSink) ConnectionOpened(context.Context, string) {}
func (s *fakeSink) ConnectionClosed(context.Context, string) {}

func (s *fakeSink) Heartbeat(_ context.Context, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats = append(s.heartbeats, deviceID)
}

func (s *fakeSink) StatusReport(_ context.Context, _ string, status json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *fakeSink) VideoStart(_ context.Context, _ string, p models.VideoPlayPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, p)
}

func (s *fakeSink) VideoPause(_ context.Context, _ string, p models.VideoPausePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses = append(s.pauses, p)
}

func (s *fakeSink) VideoEnd(_ context.Context, _ string, p models.VideoEndPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends = append(s.ends, p)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Hub, *fakeSink) {
	t.Helper()
	hub := newTestHub(nil)
	sink := &fakeSink{}
	return NewDispatcher(hub, sink), hub, sink
}

func TestDispatchDeviceEvents(t *testing.T) {
	d, hub, sink := newTestDispatcher(t)
	dev := NewClient(hub, nil, deviceIdentity("d1"), d)
	hub.Admit(context.Background(), dev)
	ctx := context.Background()

	d.HandleFrame(ctx, dev, models.Frame{Event: models.EventDeviceHeartbeat})
	d.HandleFrame(ctx, dev, models.NewFrame(models.EventDeviceStatus, map[string]int{"temp": 40}))
	d.HandleFrame(ctx, dev, models.NewFrame(models.EventVideoPlay, models.VideoPlayPayload{VideoID: "v1"}))
	d.HandleFrame(ctx, dev, models.NewFrame(models.EventVideoPause, models.VideoPausePayload{VideoID: "v1", CurrentTime: 10}))
	d.HandleFrame(ctx, dev, models.NewFrame(models.EventVideoEnd, models.VideoEndPayload{VideoID: "v1", Duration: 60}))

	assert.Equal(t, []string{"d1"}, sink.heartbeats)
	require.Len(t, sink.statuses, 1)
	require.Len(t, sink.starts, 1)
	assert.Equal(t, "v1", sink.starts[0].VideoID)
	require.Len(t, sink.pauses, 1)
	assert.Equal(t, 10.0, sink.pauses[0].CurrentTime)
	require.Len(t, sink.ends, 1)
	assert.Equal(t, 60.0, sink.ends[0].Duration)
}

func TestDispatchAdminCommands(t *testing.T) {
	d, hub, _ := newTestDispatcher(t)
	dev := NewClient(hub, nil, deviceIdentity("d1"), d)
	adm := NewClient(hub, nil, adminIdentity("u1"), d)
	hub.Admit(context.Background(), dev)
	hub.Admit(context.Background(), adm)
	ctx := context.Background()

	d.HandleFrame(ctx, adm, models.NewFrame(models.EventAdminSendToDevice, models.SendToDevicePayload{
		DeviceID: "d1",
		Event:    "play-video",
		Payload:  json.RawMessage(`{"videoId":"v1"}`),
	}))

	frame := receiveFrame(t, dev)
	assert.Equal(t, "play-video", frame.Event)
	assert.JSONEq(t, `{"videoId":"v1"}`, string(frame.Data))

	d.HandleFrame(ctx, adm, models.NewFrame(models.EventAdminBroadcast, models.BroadcastPayload{Event: "reload"}))
	assert.Equal(t, "reload", receiveFrame(t, dev).Event)
}

func TestDispatchRejectsDeviceEventsFromUsers(t *testing.T) {
	d, hub, sink := newTestDispatcher(t)
	user := NewClient(hub, nil, userIdentity("u1"), d)
	hub.Admit(context.Background(), user)

	d.HandleFrame(context.Background(), user, models.Frame{Event: models.EventDeviceHeartbeat})
	assert.Empty(t, sink.heartbeats)
}

func TestDispatchRejectsAdminCommandsFromDevices(t *testing.T) {
	d, hub, _ := newTestDispatcher(t)
	d1 := NewClient(hub, nil, deviceIdentity("d1"), d)
	d2 := NewClient(hub, nil, deviceIdentity("d2"), d)
	hub.Admit(context.Background(), d1)
	hub.Admit(context.Background(), d2)

	// A device attempting an admin command routes nothing.
	d.HandleFrame(context.Background(), d1, models.NewFrame(models.EventAdminSendToDevice, models.SendToDevicePayload{
		DeviceID: "d2",
		Event:    "play-video",
	}))
	assertNoFrame(t, d2)
}

func TestDispatchMalformedPayloadIsNoOp(t *testing.T) {
	d, hub, sink := newTestDispatcher(t)
	dev := NewClient(hub, nil, deviceIdentity("d1"), d)
	adm := NewClient(hub, nil, adminIdentity("u1"), d)
	hub.Admit(context.Background(), dev)
	hub.Admit(context.Background(), adm)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		d.HandleFrame(ctx, dev, models.Frame{Event: models.EventVideoPlay, Data: json.RawMessage(`{broken`)})
		d.HandleFrame(ctx, dev, models.Frame{Event: models.EventVideoPlay})
		d.HandleFrame(ctx, adm, models.NewFrame(models.EventAdminSendToDevice, map[string]string{"event": ""}))
		d.HandleFrame(ctx, dev, models.Frame{Event: "made:up"})
	})
	assert.Empty(t, sink.starts)
}
