package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type fakePreparer struct {
	mu       sync.Mutex
	pending  []model.User
	listErr  error
	failFor  map[string]bool
	prepared []string
}

func (f *fakePreparer) PendingUsers(ctx context.Context, limit int) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.pending) > limit {
		return append([]model.User(nil), f.pending[:limit]...), nil
	}
	return append([]model.User(nil), f.pending...), nil
}

func (f *fakePreparer) PrepareContext(ctx context.Context, user model.User) (model.UserStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[user.Mobile] {
		return "", errors.New("store failed")
	}
	f.prepared = append(f.prepared, user.Mobile)
	for i, u := range f.pending {
		if u.Mobile == user.Mobile {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	return model.UserStatusReady, nil
}

func (f *fakePreparer) preparedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prepared)
}

func TestPrecomputeJob_RunOnce(t *testing.T) {
	t.Run("prepares every pending user", func(t *testing.T) {
		users := &fakePreparer{pending: []model.User{{Mobile: "9876543210"}, {Mobile: "9123456789"}}}
		job := NewPrecomputeJob(users, time.Hour)

		handled := job.RunOnce(context.Background())

		assert.Equal(t, 2, handled)
		assert.Equal(t, []string{"9876543210", "9123456789"}, users.prepared)
	})

	t.Run("a failing user does not block the batch", func(t *testing.T) {
		users := &fakePreparer{
			pending: []model.User{{Mobile: "9876543210"}, {Mobile: "9123456789"}},
			failFor: map[string]bool{"9876543210": true},
		}
		job := NewPrecomputeJob(users, time.Hour)

		handled := job.RunOnce(context.Background())

		assert.Equal(t, 1, handled)
		assert.Equal(t, []string{"9123456789"}, users.prepared)
	})

	t.Run("batch is bounded", func(t *testing.T) {
		users := &fakePreparer{}
		for i := 0; i < precomputeBatchSize+5; i++ {
			users.pending = append(users.pending, model.User{Mobile: string(rune('a' + i))})
		}
		job := NewPrecomputeJob(users, time.Hour)

		assert.Equal(t, precomputeBatchSize, job.RunOnce(context.Background()))
	})

	t.Run("list failure handles nothing", func(t *testing.T) {
		users := &fakePreparer{listErr: errors.New("db down")}
		job := NewPrecomputeJob(users, time.Hour)

		assert.Zero(t, job.RunOnce(context.Background()))
	})
}

func TestPrecomputeJob_StartStop(t *testing.T) {
	users := &fakePreparer{pending: []model.User{{Mobile: "9876543210"}}}
	job := NewPrecomputeJob(users, 10*time.Millisecond)

	job.Start()
	require.Eventually(t, func() bool { return users.preparedCount() == 1 }, time.Second, 5*time.Millisecond)
	job.Stop()
}
