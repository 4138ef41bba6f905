//go:build unix

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/config"
)

// A single server instance for the whole test: metrics register on the
// global Prometheus registry, so NewServer can only run once per process.
func TestServer(t *testing.T) {
	cfg := config.Default()
	cfg.Terminal.Shell = "/bin/sh"

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.router.ServeHTTP(w, req)
		return w
	}

	t.Run("root", func(t *testing.T) {
		w := get("/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "online")
	})

	t.Run("health", func(t *testing.T) {
		w := get("/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("metrics", func(t *testing.T) {
		w := get("/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "backend_")
	})

	t.Run("unknown terminal write", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/terminals/term_nope/input",
			strings.NewReader(`{"data": "x"}`))
		req.Header.Set("Content-Type", "application/json")
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
