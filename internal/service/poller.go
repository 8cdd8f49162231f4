package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// GetLatest returns the trace of runID. Unknown or expired runs yield an
// empty trace, never nil.
func (s *Service) GetLatest(ctx context.Context, runID string) (*domain.StatusUpdate, error) {
	update, err := s.store.Load(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load status update %s: %w", runID, err)
	}
	if update == nil {
		return domain.NewStatusUpdate(), nil
	}
	return update, nil
}

// DeleteStatusUpdate discards the trace of runID.
func (s *Service) DeleteStatusUpdate(ctx context.Context, runID string) error {
	if err := s.store.Delete(ctx, runID); err != nil {
		return fmt.Errorf("delete status update %s: %w", runID, err)
	}
	s.logger.Info("status update deleted", "run_id", runID)
	return nil
}
