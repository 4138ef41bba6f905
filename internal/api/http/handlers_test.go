//go:build unix

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopilot-hq/autopilot/backend/internal/clitools"
	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/gitwatch"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/logging"
	"github.com/autopilot-hq/autopilot/backend/internal/proc"
	"github.com/autopilot-hq/autopilot/backend/internal/terminal"
)

func newTestRouter(t *testing.T) (*gin.Engine, *clitools.Locator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNop()
	dispatcher := events.NewDispatcher(64)
	t.Cleanup(dispatcher.Close)

	terminals := terminal.NewManager(dispatcher, log).WithShell("/bin/sh")
	t.Cleanup(terminals.CloseAll)

	watcher := gitwatch.NewWatcher(dispatcher, log)
	t.Cleanup(watcher.StopAll)

	tools := clitools.NewLocator().WithSearchPaths(t.TempDir())

	h := NewHandlers(terminals, watcher, dispatcher, proc.NewInspector(), tools)

	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/terminals", h.SpawnTerminal)
	r.POST("/terminals/command", h.SpawnTerminalWithCommand)
	r.GET("/terminals", h.ListTerminals)
	r.POST("/terminals/:id/input", h.WriteTerminal)
	r.POST("/terminals/:id/resize", h.ResizeTerminal)
	r.DELETE("/terminals/:id", h.CloseTerminal)
	r.POST("/watchers", h.StartWatcher)
	r.POST("/watchers/stop", h.StopWatcher)
	r.POST("/watchers/stop-all", h.StopAllWatchers)
	r.GET("/worktrees/status", h.WorktreeStatus)
	r.POST("/worktrees/status", h.AllWorktreeStatus)
	r.GET("/tools/:name", h.FindTool)
	return r, tools
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func TestRoot(t *testing.T) {
	r, _ := newTestRouter(t)
	code, body := doJSON(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	code, body := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "terminals")
	assert.Contains(t, body, "watchers")
}

func TestSpawnTerminalValidatesRequest(t *testing.T) {
	r, _ := newTestRouter(t)
	code, _ := doJSON(t, r, http.MethodPost, "/terminals", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTerminalLifecycleOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)
	cwd := t.TempDir()

	code, body := doJSON(t, r, http.MethodPost, "/terminals",
		`{"cwd": "`+cwd+`", "cols": 100, "rows": 30}`)
	require.Equal(t, http.StatusOK, code)
	terminalID, ok := body["terminal_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, terminalID)

	code, _ = doJSON(t, r, http.MethodPost, "/terminals/"+terminalID+"/input",
		`{"data": "echo hi\n"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, r, http.MethodPost, "/terminals/"+terminalID+"/resize",
		`{"cols": 120, "rows": 40}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = doJSON(t, r, http.MethodGet, "/terminals", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	code, _ = doJSON(t, r, http.MethodDelete, "/terminals/"+terminalID, "")
	assert.Equal(t, http.StatusOK, code)

	// Close is idempotent; a second delete is still ok.
	code, _ = doJSON(t, r, http.MethodDelete, "/terminals/"+terminalID, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestWriteUnknownTerminalIs404(t *testing.T) {
	r, _ := newTestRouter(t)
	code, body := doJSON(t, r, http.MethodPost, "/terminals/term_nope/input",
		`{"data": "x"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "terminal not found", body["error"])
}

func TestWatcherRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	repo := t.TempDir()

	// Nothing resolvable to watch is still a successful start.
	code, _ := doJSON(t, r, http.MethodPost, "/watchers",
		`{"repo_path": "`+repo+`", "worktree_paths": ["`+filepath.Join(repo, "missing")+`"]}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, r, http.MethodPost, "/watchers/stop",
		`{"repo_path": "`+repo+`"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, r, http.MethodPost, "/watchers/stop-all", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestWatcherValidatesRequest(t *testing.T) {
	r, _ := newTestRouter(t)
	code, _ := doJSON(t, r, http.MethodPost, "/watchers", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWorktreeStatusRequiresPath(t *testing.T) {
	r, _ := newTestRouter(t)
	code, _ := doJSON(t, r, http.MethodGet, "/worktrees/status", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWorktreeStatusForIdleDirectory(t *testing.T) {
	r, _ := newTestRouter(t)
	code, body := doJSON(t, r, http.MethodGet, "/worktrees/status?path="+t.TempDir(), "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "none", body["status"])
}

func TestAllWorktreeStatus(t *testing.T) {
	r, _ := newTestRouter(t)
	dir := t.TempDir()
	code, body := doJSON(t, r, http.MethodPost, "/worktrees/status",
		`{"worktree_paths": ["`+dir+`"]}`)
	assert.Equal(t, http.StatusOK, code)

	statuses, ok := body["statuses"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "none", statuses[dir])
}

func TestFindTool(t *testing.T) {
	r, tools := newTestRouter(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "gh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	tools.WithSearchPaths(dir)

	code, body := doJSON(t, r, http.MethodGet, "/tools/gh", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, path, body["path"])
}

func TestFindToolNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	t.Setenv("PATH", t.TempDir())

	code, _ := doJSON(t, r, http.MethodGet, "/tools/definitely-not-installed-xyz", "")
	assert.Equal(t, http.StatusNotFound, code)
}
