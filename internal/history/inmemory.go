package history

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process store for tests and local use.
type InMemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{turns: make(map[string][]Turn)}
}

func (s *InMemoryStore) Append(_ context.Context, userID, role string, content Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = append(s.turns[userID], Turn{
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) Window(_ context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.turns[userID]
	if len(all) == 0 {
		return []Turn{}, nil
	}
	if limit > len(all) {
		limit = len(all)
	}
	out := make([]Turn, limit)
	copy(out, all[len(all)-limit:])
	return out, nil
}

func (s *InMemoryStore) Erase(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
