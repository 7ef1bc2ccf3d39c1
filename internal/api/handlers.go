// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

// Package api provides the HTTP surface: REST endpoints for fleet
// management and the WebSocket admission endpoint for devices and
// admin consoles.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/cache"
	"github.com/screenfleet/screenfleet/internal/config"
	"github.com/screenfleet/screenfleet/internal/database"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/models"
	"github.com/screenfleet/screenfleet/internal/websocket"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg        *config.Config
	db         *database.DB
	hub        *websocket.Hub
	dispatcher *websocket.Dispatcher
	jwt        *auth.JWTManager
	authn      *auth.Authenticator
	refresh    *auth.RefreshStore
	validate   *validator.Validate

	// statsCache absorbs repeated dashboard polling between DuckDB hits.
	statsCache *cache.Cache
}

// NewHandler wires the HTTP layer to its collaborators.
func NewHandler(
	cfg *config.Config,
	db *database.DB,
	hub *websocket.Hub,
	dispatcher *websocket.Dispatcher,
	jwt *auth.JWTManager,
	authn *auth.Authenticator,
	refresh *auth.RefreshStore,
) *Handler {
	return &Handler{
		cfg:        cfg,
		db:         db,
		hub:        hub,
		dispatcher: dispatcher,
		jwt:        jwt,
		authn:      authn,
		refresh:    refresh,
		validate:   validator.New(),
		statsCache: cache.New(5 * time.Second),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates browser origins against the configured
// allow list. Non-browser clients (the TV boxes) omit the Origin header
// and are admitted; their identity is checked separately at admission.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.cfg == nil {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue removes control characters from strings to prevent
// log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData wraps payload data in the success envelope.
func respondData(w http.ResponseWriter, status int, data interface{}, count int) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC(), Count: count},
	})
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// decodeBody parses and validates a JSON request body.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err)
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request failed validation", err)
		return false
	}
	return true
}
