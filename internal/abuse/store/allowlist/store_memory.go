// Package allowlist stores client identifiers exempted from rate limiting,
// typically monitoring probes and trusted office egress IPs.
package allowlist

import (
	"context"
	"sync"

	"formgate/internal/abuse/models"
	"formgate/internal/sentinel"
	"formgate/pkg/requestcontext"
)

// InMemoryAllowlistStore keeps allowlist entries in memory, keyed by client
// identifier. Expired entries are pruned lazily on read.
type InMemoryAllowlistStore struct {
	mu      sync.RWMutex
	entries map[string]*models.AllowlistEntry
}

// New creates an empty allowlist store.
func New() *InMemoryAllowlistStore {
	return &InMemoryAllowlistStore{
		entries: make(map[string]*models.AllowlistEntry),
	}
}

// Add inserts or replaces the entry for its identifier.
func (s *InMemoryAllowlistStore) Add(ctx context.Context, entry *models.AllowlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Identifier] = entry
	return nil
}

// Remove deletes the entry for the identifier. Returns sentinel.ErrNotFound
// when no entry exists so callers can surface the miss.
func (s *InMemoryAllowlistStore) Remove(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[identifier]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, identifier)
	return nil
}

// IsAllowlisted reports whether the identifier has an active entry.
// Expired entries are dropped on the way out.
func (s *InMemoryAllowlistStore) IsAllowlisted(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, nil
	}
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identifier]
	if !ok {
		return false, nil
	}
	if entry.IsExpired(now) {
		delete(s.entries, identifier)
		return false, nil
	}
	return true, nil
}

// List returns all active (non-expired) entries.
func (s *InMemoryAllowlistStore) List(ctx context.Context) ([]*models.AllowlistEntry, error) {
	now := requestcontext.Now(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*models.AllowlistEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if !entry.IsExpired(now) {
			active = append(active, entry)
		}
	}
	return active, nil
}
