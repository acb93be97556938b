package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gistda/internhub/internal/notify"
	"github.com/gistda/internhub/internal/security/middleware"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// NotificationsHandler streams toasts to browsers over a WebSocket
type NotificationsHandler struct {
	bus            *notify.Bus
	logger         *slog.Logger
	allowedOrigins []string
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(bus *notify.Bus, allowedOrigins []string, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		bus:            bus,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *NotificationsHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/notifications. Anonymous sockets only get broadcasts.
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if sess := middleware.GetSessionFromContext(r.Context()); sess != nil && sess.Authenticated() {
		sessionID = sess.ID()
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	events, cancel := h.bus.Subscribe(sessionID)
	defer cancel()

	// the reader only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.stream(ws, events, closed); err != nil {
		h.logger.Debug("notification stream ended",
			slog.String("session_id", sessionID),
			slog.String("reason", err.Error()),
		)
	}
}

func (h *NotificationsHandler) stream(ws *websocket.Conn, events <-chan notify.Event, closed <-chan struct{}) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return nil
		case e, ok := <-events:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeTimeout))
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteJSON(e); err != nil {
				return err
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		}
	}
}
