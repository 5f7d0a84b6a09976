// Package ratelimit gates per-user request rates with a sliding window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a user's request may proceed. Allow both
// checks and records: an allowed request counts against the window, a
// rejected one does not.
type Limiter interface {
	Allow(ctx context.Context, userID int64) (bool, error)
}

// MemoryLimiter is an in-process sliding window limiter.
type MemoryLimiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	history map[int64][]time.Time
}

// NewMemoryLimiter creates a limiter allowing maxRequests per window
// per user.
func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxRequests: maxRequests,
		window:      window,
		history:     make(map[int64][]time.Time),
	}
}

var _ Limiter = (*MemoryLimiter)(nil)

// Allow reports whether the user is under the limit and, if so, records
// the request.
func (l *MemoryLimiter) Allow(ctx context.Context, userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	recent := l.history[userID][:0]
	for _, t := range l.history[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.maxRequests {
		l.history[userID] = recent
		return false, nil
	}

	l.history[userID] = append(recent, now)
	return true, nil
}
