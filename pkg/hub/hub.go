package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-nain/pkg/protocol"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	handler Handler

	running atomic.Bool
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnMessage sets the handler for messages sent by clients.
func (h *Hub) OnMessage(fn Handler) {
	h.mu.Lock()
	h.handler = fn
	h.mu.Unlock()
}

// Run starts the hub's main loop until ctx is done. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client", client.id, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "client", client.id, "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.sent.Add(1)
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client", "client", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Publish wraps data in a protocol message and broadcasts it.
func (h *Hub) Publish(eventType string, data any) {
	msg, err := protocol.NewMessage(protocol.MessageType(eventType), data)
	if err != nil {
		h.logger.Error("encode event", "type", eventType, "error", err)
		return
	}
	raw, err := msg.Bytes()
	if err != nil {
		h.logger.Error("encode event", "type", eventType, "error", err)
		return
	}
	h.Broadcast(NewJSONMessage(raw))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub loop is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats contains hub counters
type Stats struct {
	Clients int    `json:"clients"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
}

// Stats returns hub counters
func (h *Hub) Stats() Stats {
	return Stats{Clients: h.ClientCount(), Sent: h.sent.Load(), Dropped: h.dropped.Load()}
}

// RegisterRoutes mounts the websocket endpoint at path.
func (h *Hub) RegisterRoutes(app fiber.Router, path string) {
	app.Use(path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get(path, websocket.New(h.serve))
}

func (h *Hub) serve(conn *websocket.Conn) {
	id := conn.Query("client")
	if id == "" {
		id = uuid.NewString()
	}
	c := newClient(h, conn, id)
	select {
	case h.register <- c:
	case <-h.done:
		return
	}
	c.run()
}

func (h *Hub) dispatch(c *Client, msg *protocol.Message) {
	if msg.Type == protocol.TypePing {
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			if raw, err := pong.Bytes(); err == nil {
				c.trySend(NewJSONMessage(raw))
			}
		}
		return
	}

	h.mu.RLock()
	fn := h.handler
	h.mu.RUnlock()
	if fn != nil {
		fn(c.id, msg)
	}
}
