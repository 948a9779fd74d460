package billing_api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Application: config.ApplicationConfig{Env: "test", Name: "billing-api"},
		Server: config.ServerConfig{
			Port:               8080,
			ShutdownTimeout:    time.Second,
			ReadTimeout:        time.Second,
			WriteTimeout:       time.Second,
			IdleTimeout:        time.Second,
			CORSAllowedOrigins: []string{"http://localhost:5173"},
		},
		Uploads: config.UploadsConfig{MaxRequestBytes: 1 << 20},
	}

	srv, err := NewServer(slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg, Services{})
	require.NoError(t, err)
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))
}

func TestServer_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Run("AllHealthy", func(t *testing.T) {
		r := gin.New()
		r.GET("/ready", readinessHandler(logger, map[string]func(context.Context) error{
			"postgres": func(context.Context) error { return nil },
			"mongodb":  func(context.Context) error { return nil },
		}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"ready":true,"checks":{"postgres":"ok","mongodb":"ok"}}`, rr.Body.String())
	})

	t.Run("OneDown", func(t *testing.T) {
		r := gin.New()
		r.GET("/ready", readinessHandler(logger, map[string]func(context.Context) error{
			"postgres": func(context.Context) error { return nil },
			"mongodb":  func(context.Context) error { return errors.New("server selection timeout") },
		}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"ready":false,"checks":{"postgres":"ok","mongodb":"server selection timeout"}}`, rr.Body.String())
	})

	t.Run("ProbesGetDeadline", func(t *testing.T) {
		r := gin.New()
		r.GET("/ready", readinessHandler(logger, map[string]func(context.Context) error{
			"postgres": func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); !ok {
					return errors.New("no deadline")
				}
				return nil
			},
		}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestServer_EmbeddedUI(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Index", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, `id="ledger-modal"`)
		assert.Contains(t, body, `id="resident-modal"`)
		assert.Contains(t, body, `id="receipt-frame"`)
	})

	t.Run("Script", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "navbar-group-toggle")
	})
}

func TestServer_CORS(t *testing.T) {
	srv := newTestServer(t)

	t.Run("AllowedOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)

		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("OtherOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
