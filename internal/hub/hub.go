// Package hub fans workflow progress events out to WebSocket subscribers.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/82deutschmark/MagicalFarmStories/internal/domain"
)

const sendBufferSize = 64

// Connection represents a single WebSocket subscriber.
type Connection struct {
	ID      string
	Channel string
	Conn    *websocket.Conn
	Send    chan []byte
	mu      sync.Mutex
}

// Hub manages subscribers grouped by progress channel.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Channels maps a progress channel to its connection IDs
	channels map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *channelMessage
	done       chan struct{}

	mu sync.RWMutex
}

type channelMessage struct {
	Channel string
	Data    []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		channels:    make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *channelMessage, 256),
		done:        make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done. A hub
// runs once; afterwards Register closes new connections immediately.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.channels[conn.Channel] == nil {
				h.channels[conn.Channel] = make(map[string]bool)
			}
			h.channels[conn.Channel][conn.ID] = true
			h.mu.Unlock()
			log.Debug("progress subscriber registered", "conn", conn.ID, "channel", conn.Channel)

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			var slow []*Connection
			h.mu.RLock()
			for connID := range h.channels[msg.Channel] {
				conn, ok := h.connections[connID]
				if !ok {
					continue
				}
				select {
				case conn.Send <- msg.Data:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				log.Warn("progress subscriber too slow, dropping", "conn", conn.ID)
				h.remove(conn)
			}
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	if ids := h.channels[conn.Channel]; ids != nil {
		delete(ids, conn.ID)
		if len(ids) == 0 {
			delete(h.channels, conn.Channel)
		}
	}
	close(conn.Send)
	log.Debug("progress subscriber unregistered", "conn", conn.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.connections {
		close(conn.Send)
		delete(h.connections, id)
	}
	h.channels = make(map[string]map[string]bool)
}

// NewConnection creates a subscriber for channel. It is not registered yet.
func (h *Hub) NewConnection(ws *websocket.Conn, channel string) *Connection {
	return &Connection{
		ID:      uuid.New().String(),
		Channel: channel,
		Conn:    ws,
		Send:    make(chan []byte, sendBufferSize),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Publish queues a progress event for every subscriber of channel.
// Events are dropped when the hub is saturated.
func (h *Hub) Publish(channel string, event domain.ProgressEvent) {
	if channel == "" {
		return
	}
	if event.Type == "" {
		event.Type = "progress"
	}
	if event.Ts == 0 {
		event.Ts = time.Now().UnixMilli()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to encode progress event", "err", err)
		return
	}
	select {
	case h.broadcast <- &channelMessage{Channel: channel, Data: data}:
	default:
		log.Warn("progress hub saturated, dropping event", "channel", channel, "stage", event.Stage)
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HasSubscribers reports whether channel has any active connections.
func (h *Hub) HasSubscribers(channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel]) > 0
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
