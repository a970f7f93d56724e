package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/ports"
	"github.com/dejobratic/storefront/internal/session"
)

type entry struct {
	raw     []byte
	expires time.Time
}

// Store keeps sessions in process memory. Values are stored encoded so callers
// never share maps with the store. Entries idle longer than the TTL are dropped.
type Store struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     map[string]entry
	lastSwept time.Time
	now       func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a new in-memory session store. A non-positive ttl keeps
// sessions until they are deleted.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{ttl: ttl, items: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, sessionID string) (*ports.SessionData, error) {
	s.mu.Lock()
	item, ok := s.items[sessionID]
	if ok && s.expired(item, s.now()) {
		delete(s.items, sessionID)
		item = entry{}
	}
	s.mu.Unlock()
	return session.Decode(item.raw)
}

func (s *Store) Save(_ context.Context, sessionID string, data *ports.SessionData) error {
	raw, err := session.Encode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	item := entry{raw: raw}
	if s.ttl > 0 {
		item.expires = now.Add(s.ttl)
	}
	s.items[sessionID] = item
	return nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

// Len reports how many sessions are held, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) expired(item entry, now time.Time) bool {
	return !item.expires.IsZero() && !now.Before(item.expires)
}

// sweep drops expired entries at most once per TTL. Callers hold mu.
func (s *Store) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSwept) < s.ttl {
		return
	}
	for id, item := range s.items {
		if s.expired(item, now) {
			delete(s.items, id)
		}
	}
	s.lastSwept = now
}
