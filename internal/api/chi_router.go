// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/screenfleet/screenfleet/internal/auth"
)

// Router assembles the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates a router around the handler set.
func NewRouter(handler *Handler) *Router {
	return &Router{
		handler:    handler,
		middleware: NewChiMiddleware(&handler.cfg.Security),
	}
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health and metrics stay unauthenticated for probes and scrapers.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Credential endpoints get the strict limiter.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(PrometheusMetrics)
		r.With(router.middleware.RateLimitLogin()).Post("/login", router.handler.Login)
		r.Post("/refresh", router.handler.Refresh)
		r.With(router.handler.jwt.RequireAuth).Get("/me", router.handler.Me)
	})

	// The WebSocket admission endpoint authenticates from handshake
	// credentials itself, before the upgrade. No metrics wrapper here:
	// the upgrade needs the raw hijackable ResponseWriter.
	r.Get("/api/v1/ws", router.handler.WebSocket)

	// Fleet data endpoints require an authenticated operator.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(PrometheusMetrics)
		r.Use(router.handler.jwt.RequireAuth)

		r.Get("/devices", router.handler.Devices)
		r.Get("/stats", router.handler.Stats)

		// Routing diagnostics and analytics are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/devices/connected", router.handler.ConnectedDevices)
			r.Get("/analytics/events", router.handler.AnalyticsEvents)
		})
	})

	return r
}
