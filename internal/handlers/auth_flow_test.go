// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"pressroom/internal/config"
	"pressroom/internal/token"
)

// newAuth builds an Auth handler with the given admin config. No database
// is involved in the login flow.
func newAuth(cfg *config.Config) (*Auth, *token.Manager) {
	tm := token.NewManager("test-secret", time.Hour)
	return NewAuth(cfg, tm), tm
}

func postLogin(t *testing.T, h *Auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	return rr
}

func TestLoginSuccess(t *testing.T) {
	h, tm := newAuth(&config.Config{AdminUsername: "admin", AdminPassword: "hunter2"})

	rr := postLogin(t, h, `{"username":"admin","password":"hunter2"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("expected success envelope with token, got %+v", resp)
	}

	// The issued token verifies and carries the admin role.
	claims, err := tm.Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Role != token.RoleAdmin {
		t.Errorf("role: got %q, want admin", claims.Role)
	}
	if claims.Username != "admin" {
		t.Errorf("username: got %q", claims.Username)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h, _ := newAuth(&config.Config{AdminUsername: "admin", AdminPassword: "hunter2"})

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username":"admin","password":"nope"}`},
		{"wrong username", `{"username":"root","password":"hunter2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postLogin(t, h, tt.body)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("got status %d, want 401: %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), `"code":"unauthenticated"`) {
				t.Errorf("body: %q", rr.Body.String())
			}
		})
	}
}

func TestLoginValidation(t *testing.T) {
	h, _ := newAuth(&config.Config{AdminUsername: "admin", AdminPassword: "hunter2"})

	for _, body := range []string{`{`, `{"username":"","password":""}`, `{"username":"admin"}`} {
		rr := postLogin(t, h, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: got status %d, want 400", body, rr.Code)
		}
	}
}

func TestLoginMisconfigured(t *testing.T) {
	// No admin identity configured: a distinct server-side error, not a
	// false rejection.
	h, _ := newAuth(&config.Config{})

	rr := postLogin(t, h, `{"username":"admin","password":"hunter2"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"code":"misconfigured"`) {
		t.Errorf("body: %q", rr.Body.String())
	}
}

func TestLoginBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	// The hash takes precedence even when a plaintext password is set.
	h, _ := newAuth(&config.Config{
		AdminUsername:     "admin",
		AdminPassword:     "ignored",
		AdminPasswordHash: string(hash),
	})

	if rr := postLogin(t, h, `{"username":"admin","password":"s3cret"}`); rr.Code != http.StatusOK {
		t.Errorf("hash match: got status %d: %s", rr.Code, rr.Body.String())
	}
	if rr := postLogin(t, h, `{"username":"admin","password":"ignored"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("plaintext against hash: got status %d, want 401", rr.Code)
	}
}

func TestLoginTOTP(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: "admin"})
	if err != nil {
		t.Fatalf("totp generate: %v", err)
	}

	h, _ := newAuth(&config.Config{
		AdminUsername:   "admin",
		AdminPassword:   "hunter2",
		AdminTOTPSecret: key.Secret(),
	})

	// Correct credentials without the second factor fail.
	if rr := postLogin(t, h, `{"username":"admin","password":"hunter2"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing totp: got status %d, want 401", rr.Code)
	}

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	if err != nil {
		t.Fatalf("totp code: %v", err)
	}

	rr := postLogin(t, h, `{"username":"admin","password":"hunter2","totp":"`+code+`"}`)
	if rr.Code != http.StatusOK {
		t.Errorf("with totp: got status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestTOTPQR(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h, _ := newAuth(&config.Config{AdminUsername: "admin", AdminPassword: "x"})

		rr := httptest.NewRecorder()
		h.TOTPQR(rr, httptest.NewRequest(http.MethodGet, "/admin/totp-qr", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", rr.Code)
		}
	})

	t.Run("renders png", func(t *testing.T) {
		h, _ := newAuth(&config.Config{
			AdminUsername:   "admin",
			AdminPassword:   "x",
			AdminTOTPSecret: "JBSWY3DPEHPK3PXP",
		})

		rr := httptest.NewRecorder()
		h.TOTPQR(rr, httptest.NewRequest(http.MethodGet, "/admin/totp-qr", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type: got %q", ct)
		}
		// PNG magic bytes.
		if !strings.HasPrefix(rr.Body.String(), "\x89PNG") {
			t.Error("body is not a PNG")
		}
	})
}
