package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// MemoryStore is an in-process RunStore. Status updates are kept in their
// JSON wire form so every load goes through the record factory, the same as
// with a persistent backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	keys    *keyedMutex
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	updatedAt time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		keys:    newKeyedMutex(),
		now:     time.Now,
	}
}

// Start creates an empty status update for runID.
func (s *MemoryStore) Start(ctx context.Context, runID string) error {
	data, err := json.Marshal(domain.NewStatusUpdate())
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}

	unlock := s.keys.Lock(runID)
	defer unlock()
	s.put(runID, data)
	return nil
}

// Append adds rec to the run. Appends to the same run are serialized.
func (s *MemoryStore) Append(ctx context.Context, runID string, rec domain.Record) error {
	unlock := s.keys.Lock(runID)
	defer unlock()

	s.mu.RLock()
	entry, ok := s.entries[runID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run %s: %w", runID, domain.ErrRunNotStarted)
	}

	update, err := domain.StatusUpdateFromJSON(entry.data)
	if err != nil {
		return err
	}
	update.Add(rec)
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}
	s.put(runID, data)
	return nil
}

// Load returns the status update for runID or nil when there is none.
func (s *MemoryStore) Load(ctx context.Context, runID string) (*domain.StatusUpdate, error) {
	s.mu.RLock()
	entry, ok := s.entries[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return domain.StatusUpdateFromJSON(entry.data)
}

// Delete removes runID. It waits for an append in progress on the same run.
func (s *MemoryStore) Delete(ctx context.Context, runID string) error {
	unlock := s.keys.Lock(runID)
	defer unlock()

	s.mu.Lock()
	delete(s.entries, runID)
	s.mu.Unlock()
	return nil
}

// ListExpired returns runs whose last write happened before cutoff, oldest
// first.
func (s *MemoryStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type stale struct {
		runID     string
		updatedAt time.Time
	}
	var found []stale
	for runID, entry := range s.entries {
		if entry.updatedAt.Before(cutoff) {
			found = append(found, stale{runID, entry.updatedAt})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].updatedAt.Before(found[j].updatedAt) })

	ids := make([]string, 0, len(found))
	for _, f := range found {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, f.runID)
	}
	return ids, nil
}

func (s *MemoryStore) put(runID string, data []byte) {
	s.mu.Lock()
	s.entries[runID] = memoryEntry{data: data, updatedAt: s.now()}
	s.mu.Unlock()
}
