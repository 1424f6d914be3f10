// Package store holds the current release snapshot between feed refreshes.
// The layout engine itself is stateless; this is the only mutable state in
// the process, and it is a plain guarded swap.
package store

import (
	"sync"
	"time"

	"relboard/internal/model"
)

// Store is an in-memory snapshot of the imported releases.
type Store struct {
	mu        sync.RWMutex
	releases  []model.Release
	refreshed time.Time
}

func New() *Store {
	return &Store{releases: []model.Release{}}
}

// Replace swaps in a freshly imported release set.
func (s *Store) Replace(releases []model.Release) {
	cp := make([]model.Release, len(releases))
	copy(cp, releases)

	s.mu.Lock()
	s.releases = cp
	s.refreshed = time.Now().UTC()
	s.mu.Unlock()
}

// Snapshot returns a copy of the current release set and when it was last
// replaced. Callers may mutate the returned slice freely.
func (s *Store) Snapshot() ([]model.Release, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]model.Release, len(s.releases))
	copy(cp, s.releases)
	return cp, s.refreshed
}

// Len reports the current snapshot size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.releases)
}
