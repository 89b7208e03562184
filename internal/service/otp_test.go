package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOTPStore(t *testing.T) {
	client := testRedis(t)
	store := NewRedisOTPStore(client)
	ctx := context.Background()
	mobile := "9876543210"

	code, err := store.Get(ctx, mobile)
	require.NoError(t, err)
	assert.Empty(t, code)

	require.NoError(t, store.Save(ctx, mobile, "1234", time.Minute))
	code, err = store.Get(ctx, mobile)
	require.NoError(t, err)
	assert.Equal(t, "1234", code)

	n, err := store.IncrAttempts(ctx, mobile, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = store.IncrAttempts(ctx, mobile, time.Minute)
	assert.Equal(t, int64(2), n)

	// A new code resets attempts.
	require.NoError(t, store.Save(ctx, mobile, "5678", time.Minute))
	n, _ = store.IncrAttempts(ctx, mobile, time.Minute)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Delete(ctx, mobile))
	code, _ = store.Get(ctx, mobile)
	assert.Empty(t, code)
}

func TestLogOTPSender(t *testing.T) {
	assert.NoError(t, LogOTPSender{}.Send(context.Background(), "9876543210", "1234"))
}
