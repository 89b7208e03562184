package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisclient "github.com/astroconsult/consult-server-go/internal/redis"
	"github.com/astroconsult/consult-server-go/internal/util"
)

// OTPStore keeps the pending code and failed-attempt counter per mobile.
type OTPStore interface {
	Save(ctx context.Context, mobile, code string, ttl time.Duration) error
	// Get returns "" when no code is pending.
	Get(ctx context.Context, mobile string) (string, error)
	IncrAttempts(ctx context.Context, mobile string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, mobile string) error
}

// OTPSender delivers a code out of band.
type OTPSender interface {
	Send(ctx context.Context, mobile, code string) error
}

type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

// Save stores a fresh code and resets the attempt counter.
func (s *RedisOTPStore) Save(ctx context.Context, mobile, code string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisclient.OTPKey(mobile), code, ttl)
		pipe.Del(ctx, redisclient.OTPAttemptsKey(mobile))
		return nil
	})
	return err
}

func (s *RedisOTPStore) Get(ctx context.Context, mobile string) (string, error) {
	code, err := s.client.Get(ctx, redisclient.OTPKey(mobile)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

func (s *RedisOTPStore) IncrAttempts(ctx context.Context, mobile string, ttl time.Duration) (int64, error) {
	key := redisclient.OTPAttemptsKey(mobile)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, mobile string) error {
	return s.client.Del(ctx, redisclient.OTPKey(mobile), redisclient.OTPAttemptsKey(mobile)).Err()
}

// LogOTPSender writes codes to the log. It stands in for an SMS gateway.
type LogOTPSender struct{}

func (LogOTPSender) Send(_ context.Context, mobile, code string) error {
	log.Info().
		Str("mobile", util.MaskMobile(mobile)).
		Msg("otp dispatched")
	log.Debug().Str("mobile", mobile).Str("otp", code).Msg("otp code")
	return nil
}
