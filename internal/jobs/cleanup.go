package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Expirer deletes rows whose lifetime has passed.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type CleanupJob struct {
	tokens        Expirer
	adminSessions Expirer
	interval      time.Duration
	done          chan struct{}
}

func NewCleanupJob(tokens, adminSessions Expirer, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		tokens:        tokens,
		adminSessions: adminSessions,
		interval:      interval,
		done:          make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "auth tokens", j.tokens)
	j.runCleanup(ctx, "admin sessions", j.adminSessions)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, repo Expirer) {
	if repo == nil {
		return
	}
	count, err := repo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
