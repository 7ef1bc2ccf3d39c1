// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package api

import (
	"errors"
	"net/http"

	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/metrics"
	"github.com/screenfleet/screenfleet/internal/websocket"
)

// WebSocket admits a device or operator connection.
//
// Credentials arrive in the handshake: ?deviceId= for devices, ?token=
// or an Authorization bearer header for operators. Authentication runs
// synchronously BEFORE the protocol upgrade, so a rejected peer gets a
// plain HTTP error and never touches the hub (fail closed). The device
// branch wins when both credentials are present.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	hs := auth.Handshake{
		DeviceID: r.URL.Query().Get("deviceId"),
		Token:    r.URL.Query().Get("token"),
	}
	if hs.Token == "" {
		hs.Token = auth.BearerToken(r)
	}

	identity, err := h.authn.Authenticate(r.Context(), hs)
	if err != nil {
		h.rejectAdmission(w, err)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := websocket.NewClient(h.hub, conn, identity, h.dispatcher)
	h.hub.Admit(r.Context(), client)
	client.Start()
}

func (h *Handler) rejectAdmission(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrDeviceNotFound):
		metrics.RecordAuthRejection("device_not_found")
		respondError(w, http.StatusUnauthorized, "DEVICE_NOT_FOUND", "device not found", nil)
	case errors.Is(err, auth.ErrAuthFailed):
		metrics.RecordAuthRejection("bad_token")
		respondError(w, http.StatusUnauthorized, "AUTH_FAILED", "authentication failed", nil)
	case errors.Is(err, auth.ErrUserNotAuthorized):
		metrics.RecordAuthRejection("unauthorized")
		respondError(w, http.StatusUnauthorized, "USER_NOT_AUTHORIZED", "user not authorized", nil)
	case errors.Is(err, auth.ErrMissingCredentials):
		metrics.RecordAuthRejection("missing_credentials")
		respondError(w, http.StatusUnauthorized, "MISSING_CREDENTIALS", "token or device id required", nil)
	default:
		metrics.RecordAuthRejection("internal")
		respondError(w, http.StatusInternalServerError, "ADMISSION_FAILED", "admission failed", err)
	}
}
