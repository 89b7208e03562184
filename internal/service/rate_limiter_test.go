package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedis returns a client on DB 15, skipping when Redis is not running.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL("redis://localhost:6379/15")
	require.NoError(t, err)

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available for testing")
	}
	client.FlushDB(context.Background())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimiter_Basic(t *testing.T) {
	redisClient := testRedis(t)
	ctx := context.Background()
	limiter := NewRateLimiter(redisClient)

	t.Run("allows requests within limit", func(t *testing.T) {
		key := OTPMobileLimitKey("9876543210")
		limit := 3
		window := 10 * time.Second

		for i := 0; i < limit; i++ {
			allowed, _ := limiter.CheckLimit(ctx, key, limit, window)
			assert.True(t, allowed, "Request %d should be allowed", i+1)
		}

		allowed, resetAt := limiter.CheckLimit(ctx, key, limit, window)
		assert.False(t, allowed, "Request should be rate limited")
		assert.True(t, resetAt.After(time.Now()), "Reset time should be in future")
	})

	t.Run("different keys are independent", func(t *testing.T) {
		limit := 1
		window := 10 * time.Second

		key1 := OTPIPLimitKey("10.0.0.1")
		key2 := OTPIPLimitKey("10.0.0.2")

		allowed, _ := limiter.CheckLimit(ctx, key1, limit, window)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, key1, limit, window)
		assert.False(t, allowed)

		allowed, _ = limiter.CheckLimit(ctx, key2, limit, window)
		assert.True(t, allowed)
	})
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	redisClient := testRedis(t)
	ctx := context.Background()
	limiter := NewRateLimiter(redisClient)
	key := APILimitKey("9876543210")

	allowed, _ := limiter.CheckLimit(ctx, key, 1, 200*time.Millisecond)
	require.True(t, allowed)
	allowed, _ = limiter.CheckLimit(ctx, key, 1, 200*time.Millisecond)
	require.False(t, allowed)

	time.Sleep(300 * time.Millisecond)
	allowed, _ = limiter.CheckLimit(ctx, key, 1, 200*time.Millisecond)
	assert.True(t, allowed)
}

func TestRateLimiter_FailsClosed(t *testing.T) {
	invalidClient := redis.NewClient(&redis.Options{
		Addr: "localhost:1",
	})
	defer invalidClient.Close()

	limiter := NewRateLimiter(invalidClient)

	allowed, resetAt := limiter.CheckLimit(context.Background(), "test:key", 1, time.Minute)
	assert.False(t, allowed, "Redis failure should deny the request")
	assert.True(t, resetAt.After(time.Now()))
}

func TestLimitKeys(t *testing.T) {
	assert.Equal(t, "otp:mobile:9876543210", OTPMobileLimitKey("9876543210"))
	assert.Equal(t, "otp:ip:1.2.3.4", OTPIPLimitKey("1.2.3.4"))
	assert.Equal(t, "api:9876543210", APILimitKey("9876543210"))
}
