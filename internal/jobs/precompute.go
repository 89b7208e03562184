package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/util"
)

const (
	precomputeBatchSize = 10
	precomputeTimeout   = 2 * time.Minute
)

// ContextPreparer moves registered users out of processing.
type ContextPreparer interface {
	PendingUsers(ctx context.Context, limit int) ([]model.User, error)
	PrepareContext(ctx context.Context, user model.User) (model.UserStatus, error)
}

// PrecomputeJob prepares the astrological context of newly registered
// users in the background. Registration returns before this finishes;
// clients poll user status until it leaves processing.
type PrecomputeJob struct {
	users    ContextPreparer
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

func NewPrecomputeJob(users ContextPreparer, interval time.Duration) *PrecomputeJob {
	return &PrecomputeJob{
		users:    users,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *PrecomputeJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("precompute job started")
}

// Stop waits for the batch in flight to finish.
func (j *PrecomputeJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("precompute job stopped")
}

func (j *PrecomputeJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.RunOnce(context.Background())
		}
	}
}

// RunOnce prepares one batch of pending users and reports how many were
// handled.
func (j *PrecomputeJob) RunOnce(ctx context.Context) int {
	users, err := j.users.PendingUsers(ctx, precomputeBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending users")
		return 0
	}

	handled := 0
	for _, user := range users {
		select {
		case <-j.done:
			return handled
		default:
		}

		userCtx, cancel := context.WithTimeout(ctx, precomputeTimeout)
		status, err := j.users.PrepareContext(userCtx, user)
		cancel()

		if err != nil {
			log.Error().Err(err).Str("mobile", util.MaskMobile(user.Mobile)).Msg("failed to prepare context")
			continue
		}
		handled++
		log.Info().
			Str("mobile", util.MaskMobile(user.Mobile)).
			Str("status", string(status)).
			Msg("context prepared")
	}
	return handled
}
