// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package api

import (
	"net/http"

	"github.com/screenfleet/screenfleet/internal/database"
	"github.com/screenfleet/screenfleet/internal/models"
)

// Devices lists every registered device joined with its live online
// flag. Online state comes from the session registry, never from the
// database; a device is online exactly while its connection is
// registered.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.db.ListDevices(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "Device listing failed", err)
		return
	}

	out := make([]models.DeviceWithStatus, 0, len(devices))
	for _, d := range devices {
		_, online := h.hub.Registry().LookupDevice(d.ID)
		out = append(out, models.DeviceWithStatus{Device: d, Online: online})
	}
	respondData(w, http.StatusOK, out, len(out))
}

// ConnectedDevices returns the registry's current device id snapshot.
func (h *Handler) ConnectedDevices(w http.ResponseWriter, r *http.Request) {
	ids := h.hub.Registry().DeviceIDs()
	respondData(w, http.StatusOK, ids, len(ids))
}

// AnalyticsEvents lists stored playback events, newest first. Supports
// ?deviceId=, ?kind= and ?limit= filters.
func (h *Handler) AnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	filter := database.AnalyticsFilter{
		DeviceID: r.URL.Query().Get("deviceId"),
		Kind:     models.AnalyticsKind(r.URL.Query().Get("kind")),
		Limit:    getIntParam(r, "limit", 100),
	}
	events, err := h.db.ListAnalyticsEvents(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "Analytics listing failed", err)
		return
	}
	respondData(w, http.StatusOK, events, len(events))
}

const statsCacheKey = "fleet-stats"

// Stats summarizes fleet state for the dashboard. The database counts are
// cached briefly; the online count is always read live from the registry.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.cachedStats()
	if !ok {
		fresh, err := h.queryStats(r)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "QUERY_FAILED", "Stats query failed", err)
			return
		}
		h.statsCache.Set(statsCacheKey, fresh)
		stats = fresh
	}

	stats.DevicesOnline = h.hub.Registry().DeviceCount()
	respondData(w, http.StatusOK, &stats, 0)
}

func (h *Handler) cachedStats() (models.FleetStats, bool) {
	cached, ok := h.statsCache.Get(statsCacheKey)
	if !ok {
		return models.FleetStats{}, false
	}
	stats, ok := cached.(models.FleetStats)
	return stats, ok
}

func (h *Handler) queryStats(r *http.Request) (models.FleetStats, error) {
	ctx := r.Context()

	devicesTotal, err := h.db.CountDevices(ctx)
	if err != nil {
		return models.FleetStats{}, err
	}
	usersTotal, err := h.db.CountUsers(ctx)
	if err != nil {
		return models.FleetStats{}, err
	}
	eventsTotal, err := h.db.CountAnalyticsEvents(ctx)
	if err != nil {
		return models.FleetStats{}, err
	}

	return models.FleetStats{
		DevicesTotal: devicesTotal,
		UsersTotal:   usersTotal,
		EventsTotal:  eventsTotal,
	}, nil
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "alive"}, 0)
}

// HealthReady reports readiness: the database must answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Database not reachable", err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"status":      "ready",
		"connections": h.hub.ClientCount(),
	}, 0)
}
