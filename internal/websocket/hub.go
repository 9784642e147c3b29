package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-devguide-be/internal/entity"
	"ai-devguide-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "devguide:chat_events"

// Event types pushed to clients
const (
	EventMessage = "message"
)

// Event is the frame pushed to websocket clients.
type Event struct {
	Type      string      `json:"type"`
	SessionId string      `json:"sessionId"`
	Data      interface{} `json:"data"`
}

type clusterEnvelope struct {
	Origin    string          `json:"origin"`
	SessionId string          `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
}

// Hub fans chat events out to the websocket clients watching a session.
// With redis configured, events also reach clients on other instances; each
// instance ignores the envelopes it published itself.
type Hub struct {
	// session id -> clients (several tabs may watch one session)
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// closed once Run returns
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	rdb        *redis.Client
	instanceId string
	logger     logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.Send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[c.SessionId]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[c.SessionId] = set
			}
			set[c] = true
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": c.SessionId})

		case c := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[c.SessionId]; ok && set[c] {
				delete(set, c)
				close(c.Send)
				if len(set) == 0 {
					delete(h.clients, c.SessionId)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"session_id": c.SessionId})
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. After the hub stops it returns immediately.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports how many clients watch a session.
func (h *Hub) ClientCount(sessionId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionId])
}

// Publish sends an event to every client of its session, locally and, with
// redis, on other instances.
func (h *Hub) Publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(event.SessionId, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterEnvelope{Origin: h.instanceId, SessionId: event.SessionId, Message: data})
		if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish event to redis", map[string]interface{}{"error": err.Error()})
		}
	}
}

// OnMessageAppended streams every new chat message to the session's watchers.
func (h *Hub) OnMessageAppended(ctx context.Context, msg entity.ChatMessage, session *entity.ChatSession) {
	h.Publish(ctx, Event{Type: EventMessage, SessionId: session.Id, Data: msg})
}

// deliver drops the frame for clients whose buffer is full; their write pump
// is already behind and will be closed by the read deadline.
func (h *Hub) deliver(sessionId string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[sessionId] {
		select {
		case c.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping frame", map[string]interface{}{"session_id": sessionId})
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
			var env clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.instanceId {
				continue
			}
			h.deliver(env.SessionId, env.Message)
		}
	}
}
