package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/session"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxInbound = utils.MaxMessageSize + 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Inbound is a message sent by the client
type Inbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	hub      *Hub
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(sessions *session.Manager, hub *Hub, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		sessions: sessions,
		hub:      hub,
		metrics:  metrics,
		log:      log.Named("ws"),
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	sid := id.SessionID(c.Query("session"))
	s, err := h.sessions.Get(sid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	cl := &client{send: make(chan interface{}, 16)}
	h.hub.register(sid, cl)
	defer h.hub.unregister(sid, cl)

	displayed, cancel := s.Host().Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go h.writeLoop(conn, cl, displayed, done)

	cl.send <- gin.H{"type": "system", "message": "connected", "session": sid}
	h.readLoop(conn, s, cl)
}

// readLoop handles inbound messages until the connection fails
func (h *Handler) readLoop(conn *websocket.Conn, s *session.Session, cl *client) {
	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.record("in", msg.Type)

		switch msg.Type {
		case preview.MessageTypeError:
			if err := utils.ValidateMessage(msg.Message); err != nil {
				h.queue(cl, errorEvent(err.Error()))
				continue
			}
			s.Post(preview.Message{Type: preview.MessageTypeError, Message: msg.Message})
		case "ping":
			h.queue(cl, gin.H{"type": "pong"})
		default:
			h.queue(cl, errorEvent("unknown message type"))
		}
	}
}

// writeLoop is the only writer of conn
func (h *Handler) writeLoop(conn *websocket.Conn, cl *client, displayed <-chan preview.Message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-cl.send:
			if !h.write(conn, event) {
				return
			}
		case m, ok := <-displayed:
			if !ok {
				displayed = nil
				continue
			}
			if !h.write(conn, m) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, v interface{}) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		h.log.Debug("WebSocket write failed", zap.Error(err))
		return false
	}
	h.record("out", eventType(v))
	return true
}

func (h *Handler) queue(cl *client, v interface{}) {
	select {
	case cl.send <- v:
	default:
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

func errorEvent(message string) gin.H {
	return gin.H{"type": "error", "message": message}
}

func eventType(v interface{}) string {
	switch e := v.(type) {
	case preview.Message:
		return e.Type
	case gin.H:
		if t, ok := e["type"].(string); ok {
			return t
		}
	}
	return "event"
}
