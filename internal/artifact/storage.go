// Package artifact keeps values produced by tools, addressed by tool id and
// a per-tool index, so large outputs can be referenced instead of inlined.
package artifact

import (
	"strconv"
	"strings"
	"sync"
)

// Storage is the artifact store contract.
type Storage interface {
	Store(toolID string, index int, value any)
	// StoreNext stores value under the next free index of toolID and
	// returns that index.
	StoreNext(toolID string, value any) int
	Get(toolID string, index int) (any, bool)
	Has(toolID string, index int) bool
	// All returns every artifact keyed "toolID:index".
	All() map[string]any
	// NextIndex returns one past the highest index stored for toolID,
	// starting at 1.
	NextIndex(toolID string) int
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu        sync.RWMutex
	artifacts map[string]any
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{artifacts: make(map[string]any)}
}

func key(toolID string, index int) string {
	return toolID + ":" + strconv.Itoa(index)
}

// Store saves value at index, replacing what was there.
func (s *MemoryStorage) Store(toolID string, index int, value any) {
	s.mu.Lock()
	s.artifacts[key(toolID, index)] = value
	s.mu.Unlock()
}

// StoreNext picks the index and stores value under one lock, so concurrent
// callers never share an index.
func (s *MemoryStorage) StoreNext(toolID string, value any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.nextIndexLocked(toolID)
	s.artifacts[key(toolID, index)] = value
	return index
}

// Get returns the artifact at index.
func (s *MemoryStorage) Get(toolID string, index int) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.artifacts[key(toolID, index)]
	return v, ok
}

// Has reports whether an artifact exists at index.
func (s *MemoryStorage) Has(toolID string, index int) bool {
	_, ok := s.Get(toolID, index)
	return ok
}

// All returns a copy of every stored artifact.
func (s *MemoryStorage) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.artifacts))
	for k, v := range s.artifacts {
		out[k] = v
	}
	return out
}

// NextIndex returns the index the next artifact of toolID would get.
func (s *MemoryStorage) NextIndex(toolID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextIndexLocked(toolID)
}

func (s *MemoryStorage) nextIndexLocked(toolID string) int {
	prefix := toolID + ":"
	highest := 0
	for k := range s.artifacts {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		// Tool ids may themselves contain ':'; the index is whatever follows
		// this tool's prefix and must be numeric.
		if i, err := strconv.Atoi(rest); err == nil && i > highest {
			highest = i
		}
	}
	return highest + 1
}
