package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Limiter decides whether another request under key fits in the window.
type Limiter interface {
	CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, resetAt time.Time)
}

// RateLimiter counts requests per key in fixed Redis windows. A key's
// window opens with its first request and expires with the key.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLimit counts one request under key. When Redis cannot answer the
// request is denied.
func (rl *RateLimiter) CheckLimit(
	ctx context.Context,
	key string,
	limit int,
	window time.Duration,
) (allowed bool, resetAt time.Time) {
	now := time.Now()
	fullKey := "ratelimit:" + key

	pipe := rl.client.TxPipeline()
	count := pipe.Incr(ctx, fullKey)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, denying request")
		return false, now.Add(window)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		// First request of the window, or a key left without expiry.
		if err := rl.client.PExpire(ctx, fullKey, window).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit expiry failed")
		}
		remaining = window
	}

	return count.Val() <= int64(limit), now.Add(remaining)
}

// Rate limit keys.
func OTPMobileLimitKey(mobile string) string { return "otp:mobile:" + mobile }
func OTPIPLimitKey(ip string) string         { return "otp:ip:" + ip }
func APILimitKey(mobile string) string       { return "api:" + mobile }
