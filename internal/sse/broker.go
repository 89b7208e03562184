package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/astroconsult/consult-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types pushed to a user's stream.
const (
	EventStatus = "status"
	EventWallet = "wallet"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals payload into an Event.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}

type Client struct {
	Mobile string
	Events chan Event
	Done   chan struct{}
}

// Broker fans events published through Redis out to the SSE connections of
// each user, so any server instance can publish.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // mobile -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(mobile string) *Client {
	client := &Client{
		Mobile: mobile,
		Events: make(chan Event, 100),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[mobile] == nil {
		b.clients[mobile] = make(map[*Client]bool)
		go b.subscribeToRedis(mobile)
	}
	b.clients[mobile][client] = true
	clientCount := len(b.clients[mobile])
	b.mu.Unlock()

	log.Info().
		Str("mobile", mobile).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.Mobile]; ok {
		if _, present := clients[client]; !present {
			return
		}
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.Mobile)
		}

		log.Info().
			Str("mobile", client.Mobile).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

func (b *Broker) Publish(ctx context.Context, mobile string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.redis.Publish(ctx, redisclient.EventChannel(mobile), data).Err()
}

func (b *Broker) subscribeToRedis(mobile string) {
	channel := redisclient.EventChannel(mobile)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("mobile", mobile).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			if !b.broadcast(mobile, event) {
				return
			}
		}
	}
}

// broadcast reports false once the user has no subscribers left, which ends
// the Redis subscription for that user.
func (b *Broker) broadcast(mobile string, event Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients, ok := b.clients[mobile]
	if !ok {
		return false
	}

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("mobile", mobile).
				Msg("client event buffer full, dropping event")
		}
	}
	return true
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}

func (b *Broker) ClientCount(mobile string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[mobile])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
