package session

import (
	"context"
	"sync"
)

// MemoryStore is the default session store for single-process deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (m *MemoryStore) Get(ctx context.Context, tgUserID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tgUserID]
	if !ok {
		return nil, ErrNoSession
	}
	cp := s
	return &cp, nil
}

func (m *MemoryStore) Set(ctx context.Context, tgUserID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[tgUserID] = *s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, tgUserID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tgUserID)
	return nil
}
