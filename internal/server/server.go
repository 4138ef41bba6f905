// Package server wires the backend together: configuration, logging,
// metrics, the event dispatcher, resource managers, and the HTTP/WS
// command surface the desktop UI talks to.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/autopilot-hq/autopilot/backend/internal/api/http"
	"github.com/autopilot-hq/autopilot/backend/internal/api/middleware"
	"github.com/autopilot-hq/autopilot/backend/internal/api/ws"
	"github.com/autopilot-hq/autopilot/backend/internal/clitools"
	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/gitwatch"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/config"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/logging"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/monitoring"
	"github.com/autopilot-hq/autopilot/backend/internal/proc"
	"github.com/autopilot-hq/autopilot/backend/internal/terminal"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	terminals  *terminal.Manager
	watcher    *gitwatch.Watcher
	dispatcher *events.Dispatcher
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing Autopilot backend",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()

	dispatcher := events.NewDispatcher(cfg.Events.Buffer).WithObserver(metrics)

	terminals := terminal.NewManager(dispatcher, logger).
		WithMetrics(metrics).
		WithShell(cfg.Terminal.Shell).
		WithKillGrace(cfg.Terminal.KillGrace).
		WithReadBuffer(cfg.Terminal.ReadBuffer)

	watcher := gitwatch.NewWatcher(dispatcher, logger).
		WithMetrics(metrics).
		WithPollInterval(cfg.Watcher.PollInterval)

	inspector := proc.NewInspector()
	tools := clitools.NewLocator()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := apihttp.NewHandlers(terminals, watcher, dispatcher, inspector, tools)
	wsHandler := ws.NewHandler(dispatcher, logger).WithMetrics(metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Terminal sessions
	router.POST("/terminals", handlers.SpawnTerminal)
	router.POST("/terminals/command", handlers.SpawnTerminalWithCommand)
	router.GET("/terminals", handlers.ListTerminals)
	router.POST("/terminals/:id/input", handlers.WriteTerminal)
	router.POST("/terminals/:id/resize", handlers.ResizeTerminal)
	router.DELETE("/terminals/:id", handlers.CloseTerminal)

	// Repository watchers
	router.POST("/watchers", handlers.StartWatcher)
	router.POST("/watchers/stop", handlers.StopWatcher)
	router.POST("/watchers/stop-all", handlers.StopAllWatchers)

	// Worktree process status
	router.GET("/worktrees/status", handlers.WorktreeStatus)
	router.POST("/worktrees/status", handlers.AllWorktreeStatus)

	// External CLI tools
	router.GET("/tools/:name", handlers.FindTool)

	// Push channel
	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized")

	return &Server{
		router:     router,
		terminals:  terminals,
		watcher:    watcher,
		dispatcher: dispatcher,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close gracefully shuts down the server: stop accepting requests,
// terminate terminal sessions, stop watchers, then close the event
// dispatcher so every in-flight event still reaches subscribers.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("HTTP shutdown did not finish cleanly", zap.Error(err))
		}
	}

	s.terminals.CloseAll()
	s.watcher.StopAll()
	s.dispatcher.Close()

	s.logger.Sync()
	return nil
}
