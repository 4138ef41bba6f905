package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autopilot-hq/autopilot/backend/internal/clitools"
	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/gitwatch"
	"github.com/autopilot-hq/autopilot/backend/internal/proc"
	"github.com/autopilot-hq/autopilot/backend/internal/shared/types"
	"github.com/autopilot-hq/autopilot/backend/internal/terminal"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	terminals  *terminal.Manager
	watcher    *gitwatch.Watcher
	dispatcher *events.Dispatcher
	inspector  *proc.Inspector
	tools      *clitools.Locator
	startedAt  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(
	terminals *terminal.Manager,
	watcher *gitwatch.Watcher,
	dispatcher *events.Dispatcher,
	inspector *proc.Inspector,
	tools *clitools.Locator,
) *Handlers {
	return &Handlers{
		terminals:  terminals,
		watcher:    watcher,
		dispatcher: dispatcher,
		inspector:  inspector,
		tools:      tools,
		startedAt:  time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Autopilot Backend",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"terminals": gin.H{
			"active": h.terminals.Count(),
		},
		"watchers": gin.H{
			"active": h.watcher.Count(),
		},
		"events": gin.H{
			"subscribers": h.dispatcher.Subscribers(),
			"dropped":     h.dispatcher.Dropped(),
		},
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// SpawnTerminal creates a new interactive terminal session
func (h *Handlers) SpawnTerminal(c *gin.Context) {
	var req types.SpawnTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	terminalID, err := h.terminals.Spawn(req.Cwd, req.Cols, req.Rows, req.DarkMode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"terminal_id": terminalID})
}

// SpawnTerminalWithCommand creates a session that runs a command and
// then drops into an interactive shell
func (h *Handlers) SpawnTerminalWithCommand(c *gin.Context) {
	var req types.SpawnCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	terminalID, err := h.terminals.SpawnCommand(req.Cwd, req.Command, req.Args, req.Cols, req.Rows, req.DarkMode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"terminal_id": terminalID})
}

// WriteTerminal forwards UI keystrokes to a session's PTY
func (h *Handlers) WriteTerminal(c *gin.Context) {
	terminalID := c.Param("id")

	var req types.TerminalInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.terminals.Write(terminalID, []byte(req.Data)); err != nil {
		h.terminalError(c, terminalID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"terminal_id": terminalID})
}

// ResizeTerminal changes a session's PTY geometry
func (h *Handlers) ResizeTerminal(c *gin.Context) {
	terminalID := c.Param("id")

	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.terminals.Resize(terminalID, req.Cols, req.Rows); err != nil {
		h.terminalError(c, terminalID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"terminal_id": terminalID})
}

// CloseTerminal terminates a session
func (h *Handlers) CloseTerminal(c *gin.Context) {
	terminalID := c.Param("id")

	if err := h.terminals.Close(terminalID); err != nil {
		h.terminalError(c, terminalID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"terminal_id": terminalID})
}

// ListTerminals lists active sessions
func (h *Handlers) ListTerminals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"terminals": h.terminals.List(),
		"count":     h.terminals.Count(),
	})
}

func (h *Handlers) terminalError(c *gin.Context, terminalID string, err error) {
	if errors.Is(err, terminal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":       "terminal not found",
			"terminal_id": terminalID,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// StartWatcher begins watching a repository's worktrees
func (h *Handlers) StartWatcher(c *gin.Context) {
	var req types.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.watcher.Start(req.RepoPath, req.WorktreePaths); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"repo_path": req.RepoPath})
}

// StopWatcher stops watching one repository
func (h *Handlers) StopWatcher(c *gin.Context) {
	var req types.UnwatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.watcher.Stop(req.RepoPath)
	c.JSON(http.StatusOK, gin.H{"repo_path": req.RepoPath})
}

// StopAllWatchers stops every active watch
func (h *Handlers) StopAllWatchers(c *gin.Context) {
	h.watcher.StopAll()
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// WorktreeStatus classifies one worktree's processes
func (h *Handlers) WorktreeStatus(c *gin.Context) {
	worktreePath := c.Query("path")
	if worktreePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path query parameter is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"worktree_path": worktreePath,
		"status":        h.inspector.WorktreeStatus(worktreePath),
	})
}

// AllWorktreeStatus classifies several worktrees in one pass
func (h *Handlers) AllWorktreeStatus(c *gin.Context) {
	var req types.WorktreeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses": h.inspector.AllWorktreeStatus(req.WorktreePaths),
	})
}

// FindTool locates an external CLI binary
func (h *Handlers) FindTool(c *gin.Context) {
	name := c.Param("name")

	path, err := h.tools.Find(name)
	if err != nil {
		if errors.Is(err, clitools.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "tool": name})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "tool": name})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tool": name, "path": path})
}
