package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// IdempotencyStore keeps place-order responses for replaying retried requests.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]ports.StoredResponse
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]ports.StoredResponse)}
}

// Get returns nil without error for an unknown key.
func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	value.Body = append([]byte(nil), value.Body...)
	return &value, nil
}

// Save keeps the first response stored for a key.
func (s *IdempotencyStore) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; exists {
		return nil
	}
	response.Body = append([]byte(nil), response.Body...)
	s.items[key] = response
	return nil
}
