// Package realtime pushes booking changes to open browser tabs so every
// view of the same bookings reloads after a write.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"therapyspace/internal/domain"
	"therapyspace/internal/modules/booking"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Event is what a subscriber receives.
type Event struct {
	Type    booking.Event  `json:"type"`
	Booking domain.Booking `json:"booking"`
	At      time.Time      `json:"at"`
}

type connection struct {
	viewer domain.Viewer
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans booking events out to websocket subscribers. A subscriber only
// hears about bookings its viewer owns; the global viewer hears everything.
type Hub struct {
	log *zap.Logger
	now func() time.Time

	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:         log,
		now:         time.Now,
		connections: make(map[*connection]struct{}),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Subscribers reports open connections.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// BookingChanged implements booking.ChangeNotifier.
func (h *Hub) BookingChanged(event booking.Event, b domain.Booking) {
	data, err := json.Marshal(Event{Type: event, Booking: b, At: h.now().UTC()})
	if err != nil {
		h.log.Warn("booking event not encoded", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.viewer.Owns(&b) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug("slow websocket subscriber skipped", zap.String("viewer", c.viewer.Key()))
		}
	}
}

// Serve registers conn for v and blocks until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, v domain.Viewer) {
	c := &connection{
		viewer: v,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only drains control frames; subscribers never send events.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.String("viewer", c.viewer.Key()), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
