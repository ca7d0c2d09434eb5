package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/tmorgan-dev/authgate/internal/models"
)

// MemoryAttemptStore keeps attempt records in a process-local map. The
// mutex makes each hit a single critical section, and stale records are
// both lazily reset on access and proactively dropped by Sweep.
//
// The store is per process: behind a load balancer each instance
// enforces the budget independently. Deployments needing a shared limit
// use RedisAttemptStore instead.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	records map[string]*models.AttemptRecord
	policy  models.AttemptPolicy
	now     func() time.Time
}

// NewMemoryAttemptStore creates an in-memory store. A nil clock means
// wall-clock time.
func NewMemoryAttemptStore(policy models.AttemptPolicy, clock func() time.Time) *MemoryAttemptStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryAttemptStore{
		records: make(map[string]*models.AttemptRecord),
		policy:  policy,
		now:     clock,
	}
}

func (s *MemoryAttemptStore) Hit(ctx context.Context, clientKey string) (models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[clientKey]
	if !ok {
		return s.startWindow(clientKey, now), nil
	}

	if rec.Count >= s.policy.MaxAttempts {
		lockoutEnd := rec.LastAttempt.Add(s.policy.Lockout)
		if rec.LockedUntil != nil {
			lockoutEnd = *rec.LockedUntil
		}
		if now.Before(lockoutEnd) {
			return models.Decision{Allowed: false, Remaining: 0, RetryAfter: lockoutEnd.Sub(now)}, nil
		}
		// Lockout has elapsed; evaluate as a fresh window.
		return s.startWindow(clientKey, now), nil
	}

	if now.Sub(rec.WindowStart) >= s.policy.Window {
		return s.startWindow(clientKey, now), nil
	}

	rec.Count++
	rec.LastAttempt = now
	if rec.Count >= s.policy.MaxAttempts {
		until := now.Add(s.policy.Lockout)
		rec.LockedUntil = &until
	}
	return models.Decision{Allowed: true, Remaining: s.remaining(rec.Count)}, nil
}

// Clear removes the record entirely so a legitimate login is never
// penalized for prior failures.
func (s *MemoryAttemptStore) Clear(ctx context.Context, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, clientKey)
	return nil
}

// Sweep evicts records older than window+lockout past their last
// attempt. Returns the number of records removed.
func (s *MemoryAttemptStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.policy.Staleness())
	removed := 0
	for key, rec := range s.records {
		if rec.LastAttempt.Before(cutoff) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryAttemptStore) startWindow(clientKey string, now time.Time) models.Decision {
	rec := &models.AttemptRecord{Count: 1, WindowStart: now, LastAttempt: now}
	if rec.Count >= s.policy.MaxAttempts {
		until := now.Add(s.policy.Lockout)
		rec.LockedUntil = &until
	}
	s.records[clientKey] = rec
	return models.Decision{Allowed: true, Remaining: s.remaining(rec.Count)}
}

func (s *MemoryAttemptStore) remaining(count int) int {
	remaining := s.policy.MaxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
