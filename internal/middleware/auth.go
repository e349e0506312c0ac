// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"pressroom/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// ClaimsKey is the context key for the verified token claims.
	ClaimsKey contextKey = "claims"
)

// RequireAdmin verifies the Authorization bearer token and the admin role
// claim before letting the request through. A missing, malformed, expired,
// or badly signed token is unauthenticated (401); a valid token without
// the admin role is forbidden (403). On success the decoded claims are
// stored in the request context for downstream handlers.
func RequireAdmin(tm *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tm.Verify(bearerToken(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token.")
				return
			}

			if claims.Role != token.RoleAdmin {
				writeError(w, http.StatusForbidden, "forbidden", "Admin role required.")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromCtx extracts the verified claims from the request context.
// Returns nil outside the admin gate.
func ClaimsFromCtx(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*token.Claims)
	return claims
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
