package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MrJamesThe3rd/benefits/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBuffer     = 64
)

// Hub fans events out to connected WebSocket subscribers.
// Nothing is persisted: subscribers only see events published while connected.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	done       chan struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	customerID *uuid.UUID // nil receives every event
}

func NewHub(logger *slog.Logger, m *metrics.Metrics, allowedOrigins []string) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		_, ok := set[origin]

		return ok
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)

			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.metrics.SetSubscribers(0)

			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()

			h.metrics.SetSubscribers(n)
			h.logger.Info("notification subscriber connected", "subscribers", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()

			h.metrics.SetSubscribers(n)
			h.logger.Info("notification subscriber disconnected", "subscribers", n)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Publish queues event for delivery and never blocks; a full queue drops the event.
func (h *Hub) Publish(_ context.Context, event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.metrics.Notification(string(event.Type), "dropped")
		h.logger.Warn("notification queue full, dropping event",
			"type", event.Type, "transaction_id", event.TransactionID)
	}
}

func (h *Hub) deliver(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal notification", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if c.customerID != nil && *c.customerID != event.CustomerID {
			continue
		}

		select {
		case c.send <- payload:
			h.metrics.Notification(string(event.Type), "delivered")
		default:
			// Slow subscriber; drop it rather than stall everyone else.
			delete(h.clients, c)
			close(c.send)
			h.metrics.Notification(string(event.Type), "dropped")
		}
	}

	h.metrics.SetSubscribers(len(h.clients))
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// ServeWS upgrades the request and subscribes the connection. An optional
// customer_id query parameter limits delivery to that customer's events; a
// scoped request context pins it to the scoped customer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	var customerID *uuid.UUID

	if s := r.URL.Query().Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid customer_id", http.StatusBadRequest)
			return
		}

		customerID = &id
	}

	if scope, ok := customerScope(r.Context()); ok {
		if customerID != nil && *customerID != scope {
			http.Error(w, "customer_id is outside the caller's scope", http.StatusForbidden)
			return
		}

		customerID = &scope
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection", "error", err)
		return
	}

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		customerID: customerID,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only services control frames; subscribers do not send data.
func (c *client) readPump() {
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("notification subscriber read error", "error", err)
			}

			return
		}
	}
}

func (c *client) writePump() {
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

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r)
}
