// Package gateway streams market alerts to WebSocket clients.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anand121shah/tradingbot/internal/model"
)

const (
	clientSendBuffer  = 256
	defaultReplaySize = 500
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Envelope is one alert as sent to clients. Seq is global and increases by
// one per broadcast; gaps on the client side mean dropped messages.
type Envelope struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Seq     int64       `json:"seq"`
	TS      time.Time   `json:"ts"`
	Replay  bool        `json:"replay,omitempty"`
	Alert   model.Alert `json:"alert"`
}

// Hub manages WebSocket clients and fans each alert out to the clients
// whose filter matches. It implements model.AlertSink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64

	replay *ReplayBuffer
	drops  atomic.Uint64

	// OnDrop is called when a slow client's send buffer is full.
	OnDrop func()
}

// NewHub creates a hub that keeps the last replaySize envelopes for
// reconnect backfill.
func NewHub(replaySize int) *Hub {
	if replaySize <= 0 {
		replaySize = defaultReplaySize
	}
	return &Hub{
		clients: make(map[*Client]bool),
		replay:  NewReplayBuffer(replaySize),
	}
}

func (h *Hub) Name() string { return "ws" }

// Deliver implements model.AlertSink.
func (h *Hub) Deliver(_ context.Context, a model.Alert) error {
	h.Broadcast(a)
	return nil
}

// Broadcast sends a to every matching client without blocking. Seq
// assignment, replay buffering and fan-out happen under one lock so a
// client registering concurrently sees each envelope exactly once.
func (h *Hub) Broadcast(a model.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	env := Envelope{
		Type:    "alert",
		Channel: a.PubSubChannel(),
		Seq:     h.seq,
		TS:      time.Now().UTC(),
		Alert:   a,
	}
	buf, err := json.Marshal(env)
	if err != nil {
		log.Printf("[gateway] marshal envelope: %v", err)
		return
	}
	h.replay.Push(env)

	for client := range h.clients {
		if !client.matches(&env.Alert) {
			continue
		}
		select {
		case client.send <- buf:
		default:
			h.drops.Add(1)
			if h.OnDrop != nil {
				h.OnDrop()
			}
		}
	}
}

// Seq returns the last assigned sequence number.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// Drops returns how many envelopes were dropped on full client buffers.
func (h *Hub) Drops() uint64 { return h.drops.Load() }

// ServeHTTP upgrades the request and registers the client.
//
// Query parameters: symbols=AAPL,MSFT (default all), min_priority=high,
// last_seq=N to replay buffered alerts newer than N.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}

	q := r.URL.Query()
	f := Filter{MinPriority: model.Priority(strings.ToLower(q.Get("min_priority")))}
	if s := q.Get("symbols"); s != "" {
		f.Symbols = strings.Split(s, ",")
	}
	var lastSeq int64 = -1
	if s := q.Get("last_seq"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			lastSeq = n
		}
	}

	h.register(conn, f, lastSeq)
}

func (h *Hub) register(conn *websocket.Conn, f Filter, lastSeq int64) {
	client := newClient(conn, h, f)
	conn.EnableWriteCompression(true)

	// Backfill is queued before the client becomes visible to Broadcast so
	// replayed and live envelopes stay in seq order.
	h.mu.Lock()
	if lastSeq >= 0 {
		for _, env := range h.replay.Since(lastSeq) {
			if !client.matches(&env.Alert) {
				continue
			}
			env.Replay = true
			buf, _ := json.Marshal(env)
			select {
			case client.send <- buf:
			default:
			}
		}
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
