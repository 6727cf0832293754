package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans live tracking snapshots out to websocket clients watching a trip.
// With a redis client attached, snapshots also cross process boundaries via
// pattern pub/sub so any instance can serve the watchers. Published messages
// carry the origin hub id so an instance never re-delivers its own snapshots.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	TripID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(tripID string) *Client {
	client := &Client{
		TripID: tripID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = map[*Client]struct{}{}
	}
	h.clients[tripID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tripClients, ok := h.clients[client.TripID]; ok {
		delete(tripClients, client)
		if len(tripClients) == 0 {
			delete(h.clients, client.TripID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(tripID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[tripID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(tripID), h.id+"|"+string(payload)).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "trips:*:state")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		origin, payload := splitEnvelope(msg.Payload)
		if origin == h.id {
			// already delivered to local clients by Broadcast
			continue
		}
		tripID := tripIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[tripID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(payload):
			default:
			}
		}
	}
}

// splitEnvelope separates the origin hub id from the snapshot payload.
// Messages published outside a hub carry no envelope and pass through whole.
func splitEnvelope(msg string) (origin, payload string) {
	if i := strings.IndexByte(msg, '|'); i >= 0 {
		return msg[:i], msg[i+1:]
	}
	return "", msg
}

func redisChannel(tripID string) string {
	return "trips:" + tripID + ":state"
}

func tripIDFromChannel(ch string) string {
	// trips:{trip}:state
	const prefix = "trips:"
	const suffix = ":state"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
