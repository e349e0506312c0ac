// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pressroom/internal/token"
)

func testManager() *token.Manager {
	return token.NewManager("test-secret", time.Hour)
}

func okHandler(t *testing.T, claimsSeen *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := ClaimsFromCtx(r.Context()); claims != nil {
			*claimsSeen = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin(t *testing.T) {
	tm := testManager()

	t.Run("valid admin token passes", func(t *testing.T) {
		tok, err := tm.Issue("admin", token.RoleAdmin)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		var claimsSeen bool
		handler := RequireAdmin(tm)(okHandler(t, &claimsSeen))

		req := httptest.NewRequest(http.MethodGet, "/admin/articles", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if !claimsSeen {
			t.Error("claims should be available in request context")
		}
	})

	t.Run("missing token is 401", func(t *testing.T) {
		var claimsSeen bool
		handler := RequireAdmin(tm)(okHandler(t, &claimsSeen))

		req := httptest.NewRequest(http.MethodGet, "/admin/articles", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"code":"unauthenticated"`) {
			t.Errorf("body: got %q, want unauthenticated envelope", rr.Body.String())
		}
	})

	t.Run("malformed header is 401", func(t *testing.T) {
		var claimsSeen bool
		handler := RequireAdmin(tm)(okHandler(t, &claimsSeen))

		req := httptest.NewRequest(http.MethodGet, "/admin/articles", nil)
		req.Header.Set("Authorization", "Token abc123")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("expired token is 401", func(t *testing.T) {
		expired := token.NewManager("test-secret", -time.Hour)
		tok, err := expired.Issue("admin", token.RoleAdmin)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		var claimsSeen bool
		handler := RequireAdmin(tm)(okHandler(t, &claimsSeen))

		req := httptest.NewRequest(http.MethodGet, "/admin/articles", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("wrong secret is 401", func(t *testing.T) {
		other := token.NewManager("other-secret", time.Hour)
		tok, err := other.Issue("admin", token.RoleAdmin)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		var claimsSeen bool
		handler := RequireAdmin(tm)(okHandler(t, &claimsSeen))

		req := httptest.NewRequest(http.MethodGet, "/admin/articles", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})

	t.Run("valid token without admin role is 403", func(t *testing.T) {
		tok, err := tm.Issue("viewer", "viewer")
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}

		var claimsSeen bool
		handler := RequireAdmin(tm)(okHandler(t, &claimsSeen))

		req := httptest.NewRequest(http.MethodGet, "/admin/articles", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want 403", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"code":"forbidden"`) {
			t.Errorf("body: got %q, want forbidden envelope", rr.Body.String())
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer with spaces", "Bearer   abc  ", "abc"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"bare token", "abc.def.ghi", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
