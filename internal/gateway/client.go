package gateway

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anand121shah/tradingbot/internal/model"
)

// Filter selects which alerts a client receives. Empty Symbols means all
// symbols; an empty MinPriority means all priorities.
type Filter struct {
	Symbols     []string       `json:"symbols"`
	MinPriority model.Priority `json:"min_priority"`
}

// controlMsg is a client-to-server message.
//
//	{"type":"SUBSCRIBE","symbols":["AAPL"],"min_priority":"medium"}
//	{"type":"UNSUBSCRIBE","symbols":["AAPL"]}
//	{"type":"ping","ping":1705314600000}
type controlMsg struct {
	Type        string         `json:"type"`
	Symbols     []string       `json:"symbols"`
	MinPriority model.Priority `json:"min_priority"`
	Ping        int64          `json:"ping"`
}

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	mu          sync.RWMutex
	symbols     map[string]bool
	minPriority model.Priority
}

func newClient(conn *websocket.Conn, hub *Hub, f Filter) *Client {
	c := &Client{
		conn:    conn,
		send:    make(chan []byte, clientSendBuffer),
		hub:     hub,
		symbols: make(map[string]bool),
	}
	c.subscribe(f.Symbols, f.MinPriority)
	return c
}

func (c *Client) subscribe(symbols []string, minPriority model.Priority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			c.symbols[s] = true
		}
	}
	if minPriority != "" {
		c.minPriority = minPriority
	}
}

func (c *Client) unsubscribe(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		delete(c.symbols, strings.TrimSpace(s))
	}
}

func (c *Client) matches(a *model.Alert) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a.Priority.Rank() < c.minPriority.Rank() {
		return false
	}
	return len(c.symbols) == 0 || c.symbols[a.Symbol]
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg controlMsg
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}

		switch strings.ToUpper(msg.Type) {
		case "SUBSCRIBE":
			c.subscribe(msg.Symbols, model.Priority(strings.ToLower(string(msg.MinPriority))))
			c.reply(map[string]interface{}{"type": "subscribed", "symbols": msg.Symbols})
		case "UNSUBSCRIBE":
			c.unsubscribe(msg.Symbols)
			c.reply(map[string]interface{}{"type": "unsubscribed", "symbols": msg.Symbols})
		case "PING":
			c.reply(map[string]interface{}{
				"type":      "pong",
				"ping":      msg.Ping,
				"server_ts": time.Now().UnixMilli(),
			})
		}
	}
}

func (c *Client) reply(v interface{}) {
	buf, _ := json.Marshal(v)
	// readPump is the only closer of send (via RemoveClient), so this
	// cannot race with close.
	select {
	case c.send <- buf:
	default:
	}
}
