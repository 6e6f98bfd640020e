package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobdesk/internal/storage"
)

// pubsubChannel общий канал Redis для событий всех групп
const pubsubChannel = "chat:events"

// envelope событие на проводе между процессами
type envelope struct {
	Group   string          `json:"group"`
	Payload json.RawMessage `json:"payload"`
}

// Hub держит реестр живых подключений по группам и разносит события.
// Публикация идет через Redis, поэтому каждый процесс доставляет событие
// только своим локальным подключениям.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[*Conn]struct{}

	redis  *storage.RedisClient
	logger *zap.Logger
}

// NewHub создает Hub
func NewHub(redisClient *storage.RedisClient, logger *zap.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Conn]struct{}),
		redis:  redisClient,
		logger: logger,
	}
}

// Run подписывается на канал событий и доставляет их локальным подключениям
// до отмены контекста. Потерянная подписка переустанавливается с растущей
// паузой, чтобы перезапуск Redis не останавливал доставку навсегда.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Chat hub started")
	backoff := time.Second

	for {
		sub := h.redis.Subscribe(ctx, pubsubChannel)
		ch := sub.Channel()

	consume:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				h.logger.Info("Chat hub stopped")
				return
			case msg, ok := <-ch:
				if !ok {
					break consume
				}
				backoff = time.Second

				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					h.logger.Warn("Malformed hub event", zap.Error(err))
					continue
				}

				h.dispatch(env.Group, env.Payload)
			}
		}

		sub.Close()
		h.logger.Error("Hub subscription lost, resubscribing",
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			h.logger.Info("Chat hub stopped")
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

// nextBackoff удваивает паузу переподключения, не выходя за 30 секунд
func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > 30*time.Second {
		next = 30 * time.Second
	}
	return next
}

// Broadcast публикует событие для всех подписчиков группы во всех процессах
func (h *Hub) Broadcast(ctx context.Context, group string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	env, err := json.Marshal(envelope{Group: group, Payload: raw})
	if err != nil {
		return err
	}

	return h.redis.Publish(ctx, pubsubChannel, string(env))
}

// Join добавляет подключение в группу. Подключение получает все события,
// опубликованные после добавления.
func (h *Hub) Join(group string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Conn]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
}

// Leave убирает подключение из группы
func (h *Hub) Leave(group string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) dispatch(group string, payload []byte) {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.enqueue(payload)
	}
}

// GroupSize количество локальных подключений в группе
func (h *Hub) GroupSize(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}
