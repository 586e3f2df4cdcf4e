package hub

import (
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/teslashibe/go-nain/pkg/protocol"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize allows camera frames from clients
	maxMessageSize = 2 << 20
)

// Client is a single websocket connection
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

func newClient(h *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		id:   id,
		hub:  h,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client identifier.
func (c *Client) ID() string { return c.id }

// run starts the write pump and blocks in the read pump.
func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

// trySend queues a message for this client only. It never blocks.
func (c *Client) trySend(msg Message) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if !c.hub.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			c.hub.logger.Debug("ignoring client message", "client", c.id, "error", err)
			continue
		}
		c.hub.dispatch(c, msg)
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if message.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, message.Data); err != nil {
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
