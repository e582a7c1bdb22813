package listing

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps listings in a slice for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	listings []Listing
}

// NewMemoryStore creates an empty in-memory listing store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append validates and stores a listing. The sequence is the 1-based
// position in the slice; nothing is ever removed, so it is never reused.
func (s *MemoryStore) Append(ctx context.Context, l Listing) (Listing, error) {
	if err := l.Validate(); err != nil {
		return Listing{}, err
	}
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	l = l.clone()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l.Sequence = len(s.listings) + 1
	s.listings = append(s.listings, l)
	return l.clone(), nil
}

// List returns copies of all listings in commit order.
func (s *MemoryStore) List(ctx context.Context) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Listing, len(s.listings))
	for i, l := range s.listings {
		result[i] = l.clone()
	}
	return result, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
