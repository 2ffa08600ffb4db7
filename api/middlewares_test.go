package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckHandler(t *testing.T) {
	app := newTestApplication(t)

	rr := do(t, app, http.MethodGet, "/v1/healthcheck", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, "testing", body["environment"])
	assert.Equal(t, version, body["version"])
}

func TestRequireAuthenticatedUser(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	tests := []struct {
		name   string
		header string
	}{
		{"Missing", ""},
		{"WrongScheme", "Basic abc"},
		{"TooManyParts", "Bearer a b"},
		{"GarbageToken", "Bearer not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := newTestApplication(t)
	app.config.limiter.enabled = true
	app.config.limiter.maxRequestPerSecond = 0.001
	app.config.limiter.burst = 1
	h := app.routes()

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:4321"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}

func TestEnableCORS(t *testing.T) {
	app := newTestApplication(t)
	app.config.cors.trustedOrigins = []string{"http://localhost:5173"}
	h := app.routes()

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/tasks", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PATCH")
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("UntrustedOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/healthcheck", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t)
	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
	assert.JSONEq(t, `{"error":"the server encountered a problem and could not process your request"}`, rr.Body.String())
}
