// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"pressroom/internal/config"
	"pressroom/internal/token"
)

// totpIssuer is the issuer label shown in authenticator apps.
const totpIssuer = "Pressroom"

// Auth handles admin login and the optional second factor. There is a
// single admin identity configured in the environment; no user table exists.
type Auth struct {
	cfg    *config.Config
	tokens *token.Manager
}

// NewAuth creates the auth handler group.
func NewAuth(cfg *config.Config, tokens *token.Manager) *Auth {
	return &Auth{cfg: cfg, tokens: tokens}
}

// loginRequest is the login payload. The TOTP code is required only when a
// TOTP secret is configured.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTP     string `json:"totp"`
}

// Login verifies the configured admin credentials and issues a signed
// bearer token with a 7-day expiry. Missing server-side credentials are a
// server misconfiguration, not a rejection.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AdminConfigured() {
		slog.Error("login attempted with admin credentials not configured")
		writeError(w, http.StatusInternalServerError, CodeMisconfigured, "Admin credentials are not configured on the server.")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "Invalid JSON body.")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "Username and password are required.")
		return
	}

	if !h.credentialsMatch(req.Username, req.Password) || !h.totpMatch(req.TOTP) {
		writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "Invalid credentials.")
		return
	}

	tok, err := h.tokens.Issue(req.Username, token.RoleAdmin)
	if err != nil {
		slog.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to issue token.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   tok,
	})
}

// credentialsMatch compares the submitted identity against the configured
// admin identity. The bcrypt hash takes precedence over the plaintext
// password when both are set; plaintext comparison is constant-time.
func (h *Auth) credentialsMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.AdminUsername)) == 1

	var passOK bool
	if h.cfg.AdminPasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.AdminPassword)) == 1
	}

	return userOK && passOK
}

// totpMatch verifies the second factor. Always true when no TOTP secret is
// configured.
func (h *Auth) totpMatch(code string) bool {
	if h.cfg.AdminTOTPSecret == "" {
		return true
	}
	return totp.Validate(strings.TrimSpace(code), h.cfg.AdminTOTPSecret)
}

// TOTPQR renders the configured TOTP secret as a QR code PNG for enrolling
// an authenticator app. Answers not-found when no secret is configured.
func (h *Auth) TOTPQR(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminTOTPSecret == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "TOTP is not configured.")
		return
	}

	otpauth := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(totpIssuer),
		url.PathEscape(h.cfg.AdminUsername),
		url.QueryEscape(h.cfg.AdminTOTPSecret),
		url.QueryEscape(totpIssuer),
	)

	png, err := qrcode.Encode(otpauth, qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr encode failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Failed to render QR code.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
