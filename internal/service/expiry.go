package service

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/agentstatus/internal/repository"
)

const sweepBatch = 100

type expiringRunStore interface {
	repository.RunStore
	repository.ExpiringStore
}

// sweepTarget finds the backend able to list stale runs, looking through
// wrappers such as the session store whose keys are not run ids.
func sweepTarget(store repository.RunStore) expiringRunStore {
	if u, ok := store.(interface{ Unwrap() repository.RunStore }); ok {
		store = u.Unwrap()
	}
	target, _ := store.(expiringRunStore)
	return target
}

// RunExpirySweeper deletes traces that were not written for longer than the
// configured TTL. It blocks until ctx is done. Backends that cannot list
// stale runs, and a zero TTL, disable the sweeper.
func (s *Service) RunExpirySweeper(ctx context.Context) {
	target := sweepTarget(s.store)
	if target == nil || s.config.StatusTTL <= 0 {
		s.logger.Info("status expiry disabled")
		return
	}
	interval := s.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ctx, target)
		}
	}
}

func (s *Service) sweepExpired(ctx context.Context, target expiringRunStore) int {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.config.StatusTTL)
	expired, err := target.ListExpired(sweepCtx, cutoff, sweepBatch)
	if err != nil {
		s.logger.Warn("status expiry sweep failed", "error", err)
		return 0
	}

	removed := 0
	for _, key := range expired {
		if err := target.Delete(sweepCtx, key); err != nil {
			s.logger.Warn("failed to delete expired status update", "key", key, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("expired status updates removed", "count", removed)
	}
	return removed
}
