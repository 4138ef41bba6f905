// Package ws is the push channel to the UI: one WebSocket connection
// per window, fed from the event dispatcher.
package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/autopilot-hq/autopilot/backend/internal/events"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/logging"
	"github.com/autopilot-hq/autopilot/backend/internal/infrastructure/monitoring"
	"github.com/autopilot-hq/autopilot/backend/internal/shared/id"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server binds loopback only; the webview origin varies by
		// platform, so origin checking adds nothing here.
		return true
	},
}

// Handler manages WebSocket connections
type Handler struct {
	dispatcher *events.Dispatcher
	log        *logging.Logger
	metrics    *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(dispatcher *events.Dispatcher, log *logging.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		log:        log,
	}
}

// WithMetrics attaches a metrics collector
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades the request and streams events until the
// peer goes away. All writes happen on this goroutine; the read loop
// only detects disconnects and relays ping requests.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := id.NewConnID()
	sub := h.dispatcher.Subscribe(connID)
	defer h.dispatcher.Unsubscribe(connID)

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	h.log.Info("ui connected", zap.String("conn", string(connID)))
	defer h.log.Info("ui disconnected", zap.String("conn", string(connID)))

	if err := conn.WriteJSON(gin.H{
		"type":    "system",
		"message": "connected",
		"conn_id": connID,
	}); err != nil {
		return
	}

	readerDone := make(chan struct{})
	pings := make(chan struct{}, 1)
	go readLoop(conn, readerDone, pings)

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug("websocket write failed",
					zap.String("conn", string(connID)), zap.Error(err))
				return
			}
		case <-pings:
			if err := conn.WriteJSON(gin.H{"type": "pong"}); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

func readLoop(conn *websocket.Conn, done chan<- struct{}, pings chan<- struct{}) {
	defer close(done)
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
