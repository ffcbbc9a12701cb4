// Package budget holds the per-client token budget registry backing the
// rate limiter. State is in-process only; a restart refills every bucket,
// which is a documented limitation of the design, not a defect.
package budget

import (
	"context"
	"sync"
	"time"

	platformsync "formgate/pkg/platform/sync"
	"formgate/pkg/requestcontext"
)

// clientBudget is the aggregate root for one client's rate state.
// Invariant: 0 <= tokens <= capacity after every operation.
type clientBudget struct {
	tokens       float64
	lastRefillAt time.Time
}

// InMemoryBudgetStore implements a continuously-refilling token bucket per
// client identifier.
//
// Concurrency discipline: the registry map is guarded by mu for lookup and
// insert only; the read-modify-write on an individual budget happens under
// that client's shard lock, so independent clients do not serialize behind
// one another. Sweeps take every shard plus the map lock, giving them the
// same exclusion as updates.
type InMemoryBudgetStore struct {
	capacity       float64
	refillInterval time.Duration

	mu      sync.RWMutex
	budgets map[string]*clientBudget
	locks   *platformsync.ShardedMutex
}

// New creates a budget store with the given bucket capacity and the window
// over which a drained bucket fully replenishes.
func New(capacity float64, refillInterval time.Duration) *InMemoryBudgetStore {
	return &InMemoryBudgetStore{
		capacity:       capacity,
		refillInterval: refillInterval,
		budgets:        make(map[string]*clientBudget),
		locks:          platformsync.NewShardedMutex(),
	}
}

// TryConsume refills the client's bucket for the elapsed time, then attempts
// to take one token. Returns whether the request is allowed and the tokens
// remaining afterwards. A first-seen client starts with a full bucket.
func (s *InMemoryBudgetStore) TryConsume(ctx context.Context, clientID string) (allowed bool, remaining float64, err error) {
	now := requestcontext.Now(ctx)

	s.locks.Lock(clientID)
	defer s.locks.Unlock(clientID)

	b := s.fetchOrCreate(clientID, now)
	s.refill(b, now)

	if b.tokens >= 1 {
		b.tokens--
		return true, b.tokens, nil
	}
	// Insufficient budget: leave tokens untouched rather than going negative
	return false, b.tokens, nil
}

// Remaining reports the client's current token count after refill, without
// consuming. Unknown clients report a full bucket.
func (s *InMemoryBudgetStore) Remaining(ctx context.Context, clientID string) (float64, error) {
	now := requestcontext.Now(ctx)

	s.locks.Lock(clientID)
	defer s.locks.Unlock(clientID)

	s.mu.RLock()
	b, ok := s.budgets[clientID]
	s.mu.RUnlock()
	if !ok {
		return s.capacity, nil
	}

	s.refill(b, now)
	return b.tokens, nil
}

// Reset drops the client's entry entirely; its next request starts a fresh
// full bucket.
func (s *InMemoryBudgetStore) Reset(ctx context.Context, clientID string) error {
	s.locks.Lock(clientID)
	defer s.locks.Unlock(clientID)

	s.mu.Lock()
	delete(s.budgets, clientID)
	s.mu.Unlock()
	return nil
}

// SweepIdle removes entries whose last refill is older than idleFor,
// returning how many were dropped. Swept clients restart at full capacity
// on their next request — an accepted imprecision that bounds memory.
func (s *InMemoryBudgetStore) SweepIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	now := requestcontext.Now(ctx)
	cutoff := now.Add(-idleFor)

	s.locks.LockAll()
	defer s.locks.UnlockAll()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for clientID, b := range s.budgets {
		if b.lastRefillAt.Before(cutoff) {
			delete(s.budgets, clientID)
			removed++
		}
	}
	return removed, nil
}

// Size returns the number of tracked clients, for gauge metrics.
func (s *InMemoryBudgetStore) Size(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.budgets), nil
}

// fetchOrCreate must be called with the client's shard lock held.
func (s *InMemoryBudgetStore) fetchOrCreate(clientID string, now time.Time) *clientBudget {
	s.mu.RLock()
	b, ok := s.budgets[clientID]
	s.mu.RUnlock()
	if ok {
		return b
	}

	// The shard lock serializes same-key callers, so a plain insert is safe;
	// mu only protects the map against writers for other keys.
	b = &clientBudget{tokens: s.capacity, lastRefillAt: now}
	s.mu.Lock()
	s.budgets[clientID] = b
	s.mu.Unlock()
	return b
}

// refill grants tokens for the time elapsed since the last computation,
// continuously rather than per-interval, and clamps at capacity. Must be
// called with the client's shard lock held.
func (s *InMemoryBudgetStore) refill(b *clientBudget, now time.Time) {
	elapsed := now.Sub(b.lastRefillAt)
	if elapsed > 0 {
		b.tokens += elapsed.Seconds() / s.refillInterval.Seconds() * s.capacity
		if b.tokens > s.capacity {
			b.tokens = s.capacity
		}
	}
	b.lastRefillAt = now
}
