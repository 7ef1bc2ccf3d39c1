// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/screenfleet/screenfleet/internal/config"
	"github.com/screenfleet/screenfleet/internal/database"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/metrics"
	"github.com/screenfleet/screenfleet/internal/models"
)

// Ingestor consumes events from authenticated device connections. It
// persists liveness and analytics and republishes summarized
// notifications to the admin room through the bus.
//
// Every persistence failure here is logged and swallowed. An analytics
// write failure must never terminate the device connection or block
// delivery of the admin notification.
type Ingestor struct {
	db      *database.DB
	bus     *Bus
	breaker *gobreaker.CircuitBreaker[struct{}]

	// Heartbeats are throttled per device so a misbehaving client
	// cannot turn last-seen bookkeeping into a write storm.
	minInterval time.Duration
	limitersMu  sync.Mutex
	limiters    map[string]*rate.Limiter
}

// NewIngestor wires the ingestor to its persistence store and bus.
func NewIngestor(db *database.DB, bus *Bus, cfg *config.IngestConfig) *Ingestor {
	breakerName := "analytics-writes"
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    breakerName,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Analytics write breaker state changed")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &Ingestor{
		db:          db,
		bus:         bus,
		breaker:     breaker,
		minInterval: cfg.HeartbeatMinInterval,
		limiters:    make(map[string]*rate.Limiter),
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// Heartbeat refreshes the device's last-seen timestamp. No admin
// notification is emitted. Persistence failures are non-fatal; the
// device is presumed online until its connection closes.
func (i *Ingestor) Heartbeat(ctx context.Context, deviceID string) {
	if !i.allowHeartbeat(deviceID) {
		return
	}
	metrics.RecordEventIngested("heartbeat")
	if err := i.db.TouchDeviceLastSeen(ctx, deviceID); err != nil {
		metrics.RecordIngestFailure("heartbeat")
		logging.Warn().Err(err).Str("device_id", deviceID).Msg("Heartbeat persistence failed")
	}
}

// StatusReport refreshes last-seen and relays the device's raw status
// payload to the admin room with a server timestamp.
func (i *Ingestor) StatusReport(ctx context.Context, deviceID string, status json.RawMessage) {
	metrics.RecordEventIngested("status")
	if err := i.db.TouchDeviceLastSeen(ctx, deviceID); err != nil {
		metrics.RecordIngestFailure("status")
		logging.Warn().Err(err).Str("device_id", deviceID).Msg("Status persistence failed")
	}
	i.notifyAdmins(models.EventDeviceStatusUpdate, models.StatusUpdateNotification{
		DeviceID:  deviceID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}

// VideoStart records a playback start and notifies the admin room.
func (i *Ingestor) VideoStart(ctx context.Context, deviceID string, payload models.VideoPlayPayload) {
	metrics.RecordEventIngested("video_play")
	i.persistEvent(ctx, models.NewAnalyticsEvent(deviceID, payload.VideoID, models.AnalyticsVideoStart, nil), "video_play")
	i.notifyAdmins(models.EventVideoStarted, models.VideoNotification{
		DeviceID:  deviceID,
		VideoID:   payload.VideoID,
		Timestamp: time.Now().UTC(),
	})
}

// VideoPause records a pause with its playback position. Pauses are not
// relayed to admins.
func (i *Ingestor) VideoPause(ctx context.Context, deviceID string, payload models.VideoPausePayload) {
	metrics.RecordEventIngested("video_pause")
	position := payload.CurrentTime
	i.persistEvent(ctx, models.NewAnalyticsEvent(deviceID, payload.VideoID, models.AnalyticsVideoPause, &position), "video_pause")
}

// VideoEnd records a completed playback with its total duration and
// notifies the admin room.
func (i *Ingestor) VideoEnd(ctx context.Context, deviceID string, payload models.VideoEndPayload) {
	metrics.RecordEventIngested("video_end")
	duration := payload.Duration
	i.persistEvent(ctx, models.NewAnalyticsEvent(deviceID, payload.VideoID, models.AnalyticsVideoEnd, &duration), "video_end")
	i.notifyAdmins(models.EventVideoEnded, models.VideoNotification{
		DeviceID:  deviceID,
		VideoID:   payload.VideoID,
		Position:  &duration,
		Timestamp: time.Now().UTC(),
	})
}

// ConnectionOpened marks a device online: last-seen is refreshed and a
// status-changed notification goes to the admin room. This transient
// signal is the only source of online state; nothing durable records it.
func (i *Ingestor) ConnectionOpened(ctx context.Context, deviceID string) {
	if err := i.db.TouchDeviceLastSeen(ctx, deviceID); err != nil {
		logging.Warn().Err(err).Str("device_id", deviceID).Msg("Last-seen update failed on connect")
	}
	i.notifyAdmins(models.EventDeviceStatusChanged, models.StatusChangedNotification{
		DeviceID:  deviceID,
		Status:    models.DeviceOnline,
		Timestamp: time.Now().UTC(),
	})
}

// ConnectionClosed marks a device offline, mirroring ConnectionOpened.
func (i *Ingestor) ConnectionClosed(ctx context.Context, deviceID string) {
	if err := i.db.TouchDeviceLastSeen(ctx, deviceID); err != nil {
		logging.Warn().Err(err).Str("device_id", deviceID).Msg("Last-seen update failed on disconnect")
	}
	i.notifyAdmins(models.EventDeviceStatusChanged, models.StatusChangedNotification{
		DeviceID:  deviceID,
		Status:    models.DeviceOffline,
		Timestamp: time.Now().UTC(),
	})
}

// persistEvent writes an analytics record through the circuit breaker.
// When the breaker is open the write is skipped immediately instead of
// piling timeouts onto a struggling database.
func (i *Ingestor) persistEvent(ctx context.Context, ev *models.AnalyticsEvent, eventLabel string) {
	start := time.Now()
	_, err := i.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, i.db.InsertAnalyticsEvent(ctx, ev)
	})
	metrics.RecordDBQuery("insert_analytics", time.Since(start), err)
	if err != nil {
		metrics.RecordIngestFailure(eventLabel)
		logging.Error().Err(err).
			Str("device_id", ev.DeviceID).
			Str("video_id", ev.VideoID).
			Str("kind", string(ev.Kind)).
			Msg("Analytics write failed")
	}
}

func (i *Ingestor) notifyAdmins(event string, data any) {
	if err := i.bus.PublishFrame(models.NewFrame(event, data)); err != nil {
		logging.Warn().Err(err).Str("event", event).Msg("Admin notification publish failed")
	}
}

func (i *Ingestor) allowHeartbeat(deviceID string) bool {
	if i.minInterval <= 0 {
		return true
	}
	i.limitersMu.Lock()
	limiter, ok := i.limiters[deviceID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(i.minInterval), 1)
		i.limiters[deviceID] = limiter
	}
	i.limitersMu.Unlock()
	return limiter.Allow()
}
