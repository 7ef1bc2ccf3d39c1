// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection Metrics
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Current number of active WebSocket connections by kind",
		},
		[]string{"kind"}, // "device", "admin", "user"
	)

	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_connections_total",
			Help: "Total number of accepted WebSocket connections by kind",
		},
		[]string{"kind"},
	)

	AuthRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_auth_rejections_total",
			Help: "Total number of WebSocket admissions rejected before upgrade",
		},
		[]string{"reason"}, // "device_not_found", "bad_token", "unauthorized", "missing_credentials"
	)

	// Event Ingestion Metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_events_ingested_total",
			Help: "Total number of device events ingested by type",
		},
		[]string{"event"}, // "heartbeat", "status", "video_play", "video_pause", "video_end"
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_ingest_failures_total",
			Help: "Total number of event persistence failures (logged, never fatal)",
		},
		[]string{"event"},
	)

	// Command Routing Metrics
	CommandsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_commands_routed_total",
			Help: "Total number of admin commands routed to devices",
		},
		[]string{"outcome"}, // "delivered", "offline", "dropped"
	)

	BroadcastsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleet_broadcasts_total",
			Help: "Total number of fleet-wide broadcasts",
		},
	)

	DispatchQueueDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_dispatch_queue_drops_total",
			Help: "Total number of frames dropped to slow connections",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordConnectionOpened tracks a new authenticated connection.
func RecordConnectionOpened(kind string) {
	ConnectionsTotal.WithLabelValues(kind).Inc()
	ActiveConnections.WithLabelValues(kind).Inc()
}

// RecordConnectionClosed tracks a connection teardown.
func RecordConnectionClosed(kind string) {
	ActiveConnections.WithLabelValues(kind).Dec()
}

// RecordAuthRejection tracks a failed admission attempt.
func RecordAuthRejection(reason string) {
	AuthRejections.WithLabelValues(reason).Inc()
}

// RecordEventIngested tracks a successfully handled device event.
func RecordEventIngested(event string) {
	EventsIngested.WithLabelValues(event).Inc()
}

// RecordIngestFailure tracks a persistence failure for a device event.
func RecordIngestFailure(event string) {
	IngestFailures.WithLabelValues(event).Inc()
}

// RecordCommandRouted tracks a routed admin command by outcome.
func RecordCommandRouted(outcome string) {
	CommandsRouted.WithLabelValues(outcome).Inc()
}

// RecordDBQuery tracks query duration and errors.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest tracks a completed HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
