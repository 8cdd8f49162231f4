package service

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// Watch polls runID and hands every record after the first from records to
// fn, in order. It returns nil once the root invocation finished, or the
// context error when ctx ends first. An error from fn stops the watch.
func (s *Service) Watch(ctx context.Context, runID string, from int, interval time.Duration, fn func(domain.Record) error) error {
	if interval <= 0 {
		interval = s.config.WatchInterval
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cursor := from
	for {
		update, err := s.GetLatest(ctx, runID)
		if err != nil {
			return err
		}
		// A restarted run starts over.
		if update.Len() < cursor {
			cursor = 0
		}
		for _, rec := range update.Since(cursor) {
			cursor++
			if err := fn(rec); err != nil {
				return err
			}
			if rec.Type() == domain.RecordAgentFinished && rec.Header().IsRoot() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
