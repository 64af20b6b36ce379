package registry

import (
	"context"
	"sync"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

// SessionStore persists session snapshots so reconnecting clients and a
// restarted authority can resynchronize.
type SessionStore interface {
	// Save stores the snapshot for its session id.
	Save(ctx context.Context, snap *domain.SessionSnapshot) error
	// Load retrieves the snapshot for a session.
	// Returns nil if no snapshot exists.
	Load(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error)
	// Delete removes the snapshot for a session.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process SessionStore for single-instance deployments
// and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*domain.SessionSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]*domain.SessionSnapshot)}
}

func (s *MemoryStore) Save(ctx context.Context, snap *domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.snaps[snap.SessionID] = &cp
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, sessionID)
	return nil
}
