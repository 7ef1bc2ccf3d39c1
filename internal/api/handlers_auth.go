// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package api

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/screenfleet/screenfleet/internal/auth"
	"github.com/screenfleet/screenfleet/internal/database"
	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/models"
)

// Login authenticates an operator by email and password and returns an
// access token plus a refresh token. Unknown email and wrong password
// produce the same response, so the endpoint leaks nothing about which
// accounts exist.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "LOGIN_FAILED", "Login failed", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logging.Debug().Str("email", sanitizeLogValue(req.Email)).Msg("Rejected login with wrong password")
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	h.issueTokens(w, user)
}

// Refresh rotates a refresh token: the presented token is consumed and
// a fresh access/refresh pair is issued. A token can be redeemed at
// most once; replays fail.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	next, userID, err := h.refresh.Rotate(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenNotFound) {
			respondError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "REFRESH_FAILED", "Token refresh failed", err)
		return
	}

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		// The account vanished after the token was issued; clean up.
		_ = h.refresh.Revoke(next)
		respondError(w, http.StatusUnauthorized, "USER_NOT_AUTHORIZED", "User no longer exists", nil)
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "REFRESH_FAILED", "Token refresh failed", err)
		return
	}

	respondData(w, http.StatusOK, &models.TokenResponse{
		Token:        token,
		RefreshToken: next,
		ExpiresAt:    expiresAt,
		User:         user,
	}, 0)
}

// Me returns the authenticated user's own record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required", nil)
		return
	}

	user, err := h.db.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "USER_NOT_AUTHORIZED", "User no longer exists", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "LOOKUP_FAILED", "User lookup failed", err)
		return
	}
	respondData(w, http.StatusOK, user, 0)
}

func (h *Handler) issueTokens(w http.ResponseWriter, user *models.User) {
	token, expiresAt, err := h.jwt.GenerateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LOGIN_FAILED", "Login failed", err)
		return
	}
	refreshToken, err := h.refresh.Issue(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LOGIN_FAILED", "Login failed", err)
		return
	}

	logging.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	respondData(w, http.StatusOK, &models.TokenResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, 0)
}
