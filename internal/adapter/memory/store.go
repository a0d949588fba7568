// Package memory holds the snapshot currently served by the API.
package memory

import (
	"context"
	"sync/atomic"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
)

// Store keeps the latest published snapshot. Readers never block writers.
type Store struct {
	latest atomic.Pointer[domain.Snapshot]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the current snapshot.
func (s *Store) Load(_ context.Context, snap domain.Snapshot) error {
	s.latest.Store(&snap)
	return nil
}

// Latest returns the current snapshot, or false if none was published.
func (s *Store) Latest() (domain.Snapshot, bool) {
	snap := s.latest.Load()
	if snap == nil {
		return domain.Snapshot{}, false
	}
	return *snap, true
}
