package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"blog-editor-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	logModule      = "WS"
	clusterChannel = "editor_cluster_events"

	publishQueueSize = 256
	publishTimeout   = 2 * time.Second
)

// Message is the envelope pushed to editor clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type clusterEnvelope struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

// Hub fans messages out to the websocket clients of an editor session. With
// Redis configured, messages also reach clients connected to other instances.
type Hub struct {
	// Session id -> connected clients (several tabs may watch one session)
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	doneOnce   sync.Once

	// Cluster envelopes waiting for the Redis publisher
	outbox chan []byte

	mu sync.RWMutex

	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		outbox:     make(chan []byte, publishQueueSize),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

// Run processes registrations until ctx is done. Register and Unregister
// return immediately once Run has stopped.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
		go h.publishToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.doneOnce.Do(func() { close(h.done) })
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.SessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.SessionID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info(logModule, "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.SessionID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.Send)
				}
				if len(set) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info(logModule, "Session has no clients left", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports how many clients watch sessionID on this instance.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// SendToSession pushes a typed message to every client of sessionID. It
// never waits on Redis: cluster copies are queued for the publisher and
// dropped when the queue is full.
func (h *Hub) SendToSession(sessionID, msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Error(logModule, "Failed to encode message", map[string]interface{}{
			"session_id": sessionID,
			"type":       msgType,
			"error":      err.Error(),
		})
		return
	}

	h.deliver(sessionID, data)

	if h.rdb != nil {
		envelope, _ := json.Marshal(clusterEnvelope{
			Origin:          h.instance,
			TargetSessionID: sessionID,
			Message:         data,
		})
		select {
		case h.outbox <- envelope:
		default:
			h.logger.Warn(logModule, "Cluster publish queue full, dropping message", map[string]interface{}{"session_id": sessionID})
		}
	}
}

func (h *Hub) publishToRedis(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case envelope := <-h.outbox:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := h.rdb.Publish(pubCtx, clusterChannel, envelope).Err()
			cancel()
			if err != nil {
				h.logger.Warn(logModule, "Cluster publish failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// deliver writes to the local clients. A client whose buffer is full is
// dropped instead of blocking the sender.
func (h *Hub) deliver(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(logModule, "Client send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
			go h.Unregister(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var envelope clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				h.logger.Warn(logModule, "Cluster message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if envelope.Origin == h.instance {
				continue
			}
			h.deliver(envelope.TargetSessionID, envelope.Message)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for client := range set {
			close(client.Send)
		}
		delete(h.clients, id)
	}
}
