// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP API: article publishing, media
// upload and retrieval, and admin authentication. All responses are JSON;
// errors carry a machine-readable code alongside the message.
package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in the error envelope.
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeUnauthenticated  = "unauthenticated"
	CodeForbidden        = "forbidden"
	CodeUnsupportedMedia = "unsupported_media"
	CodePayloadTooLarge  = "payload_too_large"
	CodeMisconfigured    = "misconfigured"
	CodeInternal         = "internal"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeError writes the JSON error envelope: a human-readable message plus
// a stable error code clients can branch on.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// Health returns a liveness handler that also verifies database reachability.
func Health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("health check db ping failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, CodeInternal, "Database unreachable.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
