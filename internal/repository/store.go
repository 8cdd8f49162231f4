// Package repository provides the run-scoped storage backends for status
// updates.
package repository

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// RunStore keeps one StatusUpdate per run id.
type RunStore interface {
	// Start creates an empty status update for runID, replacing any
	// previous one.
	Start(ctx context.Context, runID string) error
	// Append adds rec to the status update of runID. It returns
	// domain.ErrRunNotStarted when Start was never called for runID.
	Append(ctx context.Context, runID string, rec domain.Record) error
	// Load returns the stored status update, or nil without error when
	// runID is unknown or expired.
	Load(ctx context.Context, runID string) (*domain.StatusUpdate, error)
	// Delete removes the status update. Deleting an unknown run is not an
	// error.
	Delete(ctx context.Context, runID string) error
}

// ExpiringStore is implemented by backends that can report stale runs.
type ExpiringStore interface {
	// ListExpired returns up to limit run ids last written before cutoff.
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}
