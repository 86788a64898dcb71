package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Conn struct {
	ws    *websocket.Conn
	kind  string
	send  chan []byte
	done  chan struct{}
	flush chan struct{}
	once  sync.Once
	ended sync.Once
}

func newConn(ws *websocket.Conn, kind string) *Conn {
	return &Conn{
		ws:    ws,
		kind:  kind,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		flush: make(chan struct{}),
	}
}

// Send queues a message. A client whose buffer is full is disconnected
// and Send reports false.
func (c *Conn) Send(msgType string, payload any) bool {
	return c.write(Outbound{Type: msgType, Payload: payload})
}

func (c *Conn) SendError(code, message string) bool {
	return c.write(Outbound{Type: "error", Code: code, Message: message})
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Conn) write(msg Outbound) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encode websocket message", "type", msg.Type, "err", err)
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		slog.Warn("dropping slow websocket client", "kind", c.kind)
		c.Close()
		return false
	}
}

// End sends a final error, lets it reach the client and closes.
func (c *Conn) End(code, message string) {
	c.SendError(code, message)
	c.closeAfterFlush()
}

// closeAfterFlush lets the write loop send what is queued, then closes.
func (c *Conn) closeAfterFlush() {
	c.ended.Do(func() { close(c.flush) })
	select {
	case <-c.done:
	case <-time.After(writeWait):
		c.Close()
	}
}

func (c *Conn) readPump(session Session) {
	c.ws.SetReadLimit(maxMsgSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Info("websocket read ended", "kind", c.kind, "err", err)
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil || in.Type == "" {
			c.SendError("INVALID_JSON", "Failed to parse message")
			continue
		}
		if in.Type == "ping" {
			c.Send("pong", nil)
			continue
		}
		session.Handle(c, in)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.flush:
			for {
				select {
				case msg := <-c.send:
					_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					_ = c.ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
					return
				}
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
