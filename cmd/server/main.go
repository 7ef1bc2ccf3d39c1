// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screenfleet/screenfleet/internal/api"
	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/config"
	"github.com/screenfleet/screenfleet/internal/database"
	"github.com/screenfleet/screenfleet/internal/ingest"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/supervisor"
	"github.com/screenfleet/screenfleet/internal/supervisor/services"
	ws "github.com/screenfleet/screenfleet/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting ScreenFleet hub")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	if cfg.Security.AdminEmail != "" && cfg.Security.AdminPassword != "" {
		if err := db.EnsureAdminUser(context.Background(), cfg.Security.AdminEmail, cfg.Security.AdminPassword); err != nil {
			logging.Fatal().Err(err).Msg("Failed to ensure admin user")
		}
	} else {
		logging.Warn().Msg("ADMIN_EMAIL/ADMIN_PASSWORD not set, no bootstrap admin account")
	}

	if cfg.Database.SeedDemoData {
		logging.Info().Msg("Demo data seeding enabled (SEED_DEMO_DATA=true)")
		if err := db.SeedDemoDevices(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed demo devices")
		}
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	refreshStore, err := auth.NewRefreshStore(cfg.Security.RefreshStorePath, cfg.Security.RefreshTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open refresh token store")
	}
	defer func() {
		if err := refreshStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing refresh token store")
		}
	}()
	if cfg.Security.RefreshStorePath == "" {
		logging.Warn().Msg("Refresh token store is in-memory, sessions will not survive restarts")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	// Messaging pipeline: bus carries admin notifications from the ingestor
	// to the hub's admin room via the forwarder.
	bus := ingest.NewBus(int(cfg.Ingest.BusBuffer))
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	ingestor := ingest.NewIngestor(db, bus, &cfg.Ingest)
	hub := ws.NewHub(&cfg.Hub, ingestor)
	dispatcher := ws.NewDispatcher(hub, ingestor)
	forwarder := ingest.NewForwarder(bus, hub)
	authenticator := auth.NewAuthenticator(db, jwtManager)

	handler := api.NewHandler(cfg, db, hub, dispatcher, jwtManager, authenticator, refreshStore)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog wants an slog.Logger; bridge it onto zerolog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewForwarderService(forwarder))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Hub stopped gracefully")
}
