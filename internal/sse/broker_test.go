package sse

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/astroconsult/consult-server-go/internal/redis"
)

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(EventWallet, map[string]float64{"balance": 45})
	require.NoError(t, err)
	assert.Equal(t, "wallet", event.Type)
	assert.JSONEq(t, `{"balance":45}`, string(event.Data))
}

func TestBrokerSubscriptions(t *testing.T) {
	// Subscribing starts a Redis subscriber goroutine; with an unreachable
	// Redis it just fails in the background.
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:1"})
	defer client.Close()
	b := NewBroker(&redisclient.Client{Client: client})
	defer b.Close()

	c1 := b.Subscribe("9876543210")
	c2 := b.Subscribe("9876543210")
	c3 := b.Subscribe("9123456780")

	assert.Equal(t, 2, b.ClientCount("9876543210"))
	assert.Equal(t, 3, b.TotalClients())

	b.Unsubscribe(c1)
	assert.Equal(t, 1, b.ClientCount("9876543210"))
	select {
	case <-c1.Done:
	default:
		t.Fatal("unsubscribed client should be done")
	}

	// Unsubscribing twice is harmless.
	b.Unsubscribe(c1)

	assert.True(t, b.broadcast("9876543210", Event{Type: EventStatus, Data: json.RawMessage(`{"status":"ready"}`)}))
	select {
	case ev := <-c2.Events:
		assert.Equal(t, EventStatus, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}

	b.Unsubscribe(c2)
	b.Unsubscribe(c3)
	assert.Zero(t, b.TotalClients())
	assert.False(t, b.broadcast("9876543210", Event{Type: EventStatus}))
}

func TestBrokerPublishRoundTrip(t *testing.T) {
	opts, _ := goredis.ParseURL("redis://localhost:6379/15")
	client := goredis.NewClient(opts)
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available for testing")
	}

	b := NewBroker(&redisclient.Client{Client: client})
	defer b.Close()

	sub := b.Subscribe("9000000001")
	time.Sleep(100 * time.Millisecond)

	event, _ := NewEvent(EventStatus, map[string]string{"status": "ready"})
	require.NoError(t, b.Publish(context.Background(), "9000000001", event))

	select {
	case got := <-sub.Events:
		assert.Equal(t, EventStatus, got.Type)
		assert.JSONEq(t, `{"status":"ready"}`, string(got.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
