package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// JobStore is the slice of the booking store the expiry job needs.
type JobStore interface {
	StalePendingIDs(ctx context.Context, createdBefore time.Time) ([]string, error)
	CancelPending(ctx context.Context, ids []string) (int64, error)
}

type JobService struct {
	Repo    JobStore
	ttl     time.Duration
	metrics *Metrics
	now     func() time.Time
}

// NewJobService builds the stale pending expiry job. Pending bookings without a
// payment slip that are older than ttl get cancelled, freeing their slot.
func NewJobService(repo JobStore, ttl time.Duration, metrics *Metrics) *JobService {
	return &JobService{
		Repo:    repo,
		ttl:     ttl,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ExpireStalePending cancels abandoned Pending bookings and returns how many
// were cancelled.
func (s *JobService) ExpireStalePending(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)
	log.Debug().Time("cutoff", cutoff).Msg("Cron job: checking for stale pending bookings")

	ids, err := s.Repo.StalePendingIDs(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to get stale pending bookings: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := s.Repo.CancelPending(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("cron job: failed to cancel stale pending bookings: %w", err)
	}
	s.metrics.observeExpired(int(n))
	log.Info().Int64("cancelled", n).Strs("ids", ids).Msg("Cron job: cancelled stale pending bookings")
	return n, nil
}

// Schedule registers the expiry job on c with the given spec.
func (s *JobService) Schedule(c *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.ExpireStalePending(ctx); err != nil {
			log.Error().Err(err).Msg("Stale pending expiry failed")
		}
	})
}
