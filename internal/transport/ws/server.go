// Package ws serves the progress WebSocket stream.
package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
	"github.com/82deutschmark/MagicalFarmStories/internal/hub"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 1024
)

// Server upgrades progress subscriptions to WebSocket connections.
type Server struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(h *hub.Hub) *Server {
	return &Server{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleProgress handles GET /ws/progress/:channel.
func (s *Server) HandleProgress(c echo.Context) error {
	channel := strings.TrimSpace(c.Param("channel"))
	if channel == "" {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "channel is required", Code: "invalid_request"})
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("failed to upgrade websocket", "err", err)
		return nil
	}

	conn := s.hub.NewConnection(ws, channel)
	s.hub.Register(conn)
	ws.SetReadLimit(maxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

// readPump discards client frames and unregisters on disconnect.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket read error", "conn", conn.ID, "err", err)
			}
			return
		}
	}
}

// writePump forwards queued events and keeps the connection alive.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("failed to write progress event", "conn", conn.ID, "err", err)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
