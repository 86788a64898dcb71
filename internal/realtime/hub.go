// Package realtime serves WebSocket sessions: one read loop and one write
// loop per connection, with a bounded send buffer.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Inbound is a client message. Data is decoded by the session.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Session is the per-connection behaviour. Open runs before the read loop;
// Handle runs on the read goroutine, one message at a time.
type Session interface {
	Open(conn *Conn) error
	Handle(conn *Conn, in Inbound)
	Close()
}

// Observer counts live connections per kind.
type Observer interface {
	WSConnected(kind string)
	WSDisconnected(kind string)
}

type Hub struct {
	mu       sync.Mutex
	conns    map[*Conn]struct{}
	upgrader websocket.Upgrader
	observer Observer
}

// NewHub accepts upgrades from the listed origins. An empty list or "*"
// allows any origin.
func NewHub(allowedOrigins []string, observer Observer) *Hub {
	h := &Hub{
		conns:    make(map[*Conn]struct{}),
		observer: observer,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Serve upgrades the request and blocks until the connection ends.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, kind string, session Session) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "kind", kind, "err", err)
		return
	}

	c := newConn(ws, kind)
	h.register(c)
	defer h.unregister(c)

	go c.writePump()

	if err := session.Open(c); err != nil {
		c.SendError("OPEN_FAILED", err.Error())
		c.closeAfterFlush()
		session.Close()
		return
	}
	c.readPump(session)
	session.Close()
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close ends every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.WSConnected(c.kind)
	}
}

func (h *Hub) unregister(c *Conn) {
	c.Close()
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if ok && h.observer != nil {
		h.observer.WSDisconnected(c.kind)
	}
}
