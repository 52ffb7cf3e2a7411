package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	goredis "github.com/go-redis/redis/v8"

	"github.com/anand121shah/tradingbot/internal/model"
)

// AlertPattern matches every per-symbol alert channel.
const AlertPattern = "pub:alert:*"

// PubSubRouter relays alerts published to Redis by another process into
// the hub. It lets the WebSocket gateway run separately from the analyzer.
type PubSubRouter struct {
	hub *Hub
	rdb *goredis.Client
}

// NewPubSubRouter creates a PubSubRouter for hub.
func NewPubSubRouter(hub *Hub, rdb *goredis.Client) *PubSubRouter {
	return &PubSubRouter{hub: hub, rdb: rdb}
}

// Run subscribes to AlertPattern and broadcasts every decoded alert.
// Blocks until ctx is cancelled.
func (r *PubSubRouter) Run(ctx context.Context) {
	pubsub := r.rdb.PSubscribe(ctx, AlertPattern)
	defer pubsub.Close()

	log.Printf("[gateway] subscribed to %s", AlertPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			a, err := decodeAlert(msg.Channel, msg.Payload)
			if err != nil {
				log.Printf("[gateway] %v", err)
				continue
			}
			r.hub.Broadcast(a)
		}
	}
}

// decodeAlert parses a pub:alert:{symbol} payload. The symbol in the
// payload must agree with the channel.
func decodeAlert(channel, payload string) (model.Alert, error) {
	var a model.Alert
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return a, fmt.Errorf("decode alert on %s: %w", channel, err)
	}
	if a.PubSubChannel() != channel {
		return a, fmt.Errorf("alert for %q received on %s", a.Symbol, channel)
	}
	return a, nil
}
