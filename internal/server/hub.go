package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
)

// Live feed message types.
const (
	MessageMetrics      = "metrics"
	MessageRep          = "rep"
	MessageSessionStart = "session_start"
	MessageSessionEnd   = "session_end"
)

const (
	writeTimeout = 2 * time.Second
	sendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is one JSON frame on the live feed.
type Message struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id,omitempty"`
	Exercise  exercise.Kind       `json:"exercise,omitempty"`
	Metrics   *exercise.Metrics   `json:"metrics,omitempty"`
	Rep       *exercise.RepRecord `json:"rep,omitempty"`
	Summary   *exercise.Summary   `json:"summary,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// Hub fans live workout messages out to WebSocket clients. Newly connected
// clients receive the most recent metrics snapshot first.
type Hub struct {
	clients map[*client]struct{}
	last    []byte
	metrics *metrics.Manager
	mu      sync.Mutex
}

// client is one WebSocket connection. Only its write loop writes to conn;
// the hub hands it messages through send and closes send to drop it.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewHub creates an empty Hub. metricsManager may be nil.
func NewHub(metricsManager *metrics.Manager) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		metrics: metricsManager,
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.updateGauge()
	h.mu.Unlock()

	go c.writeLoop()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	<-c.done
}

func (c *client) writeLoop() {
	defer close(c.done)
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.WithError(err).Debug("live client write failed")
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
		time.Now().Add(writeTimeout))
}

// Broadcast queues msg for every connected client without waiting for the
// network. A client whose queue is full is dropped.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Error("failed to encode live message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if msg.Type == MessageMetrics {
		h.last = data
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Debug("dropping slow live client")
			h.drop(c)
		}
	}
	h.updateGauge()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		h.drop(c)
	}
	h.updateGauge()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.drop(c)
	}
	h.updateGauge()
}

// drop unregisters c and ends its write loop. Must hold h.mu.
func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

// updateGauge must be called with h.mu held.
func (h *Hub) updateGauge() {
	if h.metrics != nil {
		h.metrics.GaugeLiveClients.Set(float64(len(h.clients)))
	}
}
