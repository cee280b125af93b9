package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection and the player identity attached to it.
type Client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte

	userID   string
	addr     string
	roomCode string

	mu     sync.Mutex
	closed bool
}

func newClient(s *Server, conn *websocket.Conn, userID, addr string) *Client {
	return &Client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 32),
		userID: userID,
		addr:   addr,
	}
}

// enqueue hands a marshaled event to the write pump, dropping the client if
// its buffer is stuck. Once the client is closed further sends are discarded,
// so a broadcast racing the drop never writes to a closed channel.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.server.logger.Warn("client send buffer full, dropping connection",
			zap.String("user_id", c.userID))
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendEvent(event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		c.server.logger.Error("marshal event failed", zap.String("event", event), zap.Error(err))
		return
	}
	c.enqueue(data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads commands until the connection drops. The player record
// stays in its room after a disconnect so the identity can reconnect.
func (c *Client) readPump() {
	defer func() {
		c.server.hub.Unregister(c)
		c.server.limiter.Release(c.addr)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.sendError("Invalid message", false)
			continue
		}
		c.server.handleCommand(c, evt)
	}
}

// writePump flushes queued events and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
