package repository

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

type sessionKey struct{}

// WithSession returns a context scoped to sessionID. SessionStore reads it
// to build its keys.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session id carried by ctx.
func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// SessionStore keeps runs private to the session that produced them. Every
// operation requires a session in the context.
type SessionStore struct {
	inner  RunStore
	prefix string
}

// NewSessionStore wraps inner. Keys are stored as prefix+sessionID+":"+runID.
func NewSessionStore(inner RunStore, prefix string) *SessionStore {
	return &SessionStore{inner: inner, prefix: prefix}
}

func (s *SessionStore) key(ctx context.Context, runID string) (string, error) {
	sessionID, ok := SessionFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("no session in context: %w", domain.ErrBackendUnavailable)
	}
	return s.prefix + sessionID + ":" + runID, nil
}

func (s *SessionStore) Start(ctx context.Context, runID string) error {
	key, err := s.key(ctx, runID)
	if err != nil {
		return err
	}
	return s.inner.Start(ctx, key)
}

func (s *SessionStore) Append(ctx context.Context, runID string, rec domain.Record) error {
	key, err := s.key(ctx, runID)
	if err != nil {
		return err
	}
	return s.inner.Append(ctx, key, rec)
}

func (s *SessionStore) Load(ctx context.Context, runID string) (*domain.StatusUpdate, error) {
	key, err := s.key(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.inner.Load(ctx, key)
}

func (s *SessionStore) Delete(ctx context.Context, runID string) error {
	key, err := s.key(ctx, runID)
	if err != nil {
		return err
	}
	return s.inner.Delete(ctx, key)
}

// Unwrap returns the wrapped store.
func (s *SessionStore) Unwrap() RunStore {
	return s.inner
}
