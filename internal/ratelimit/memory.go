package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Safe for concurrent
// dispatches; all state sits behind one mutex.
type MemoryLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	maxRequests int
	windowLen   time.Duration
	now         func() time.Time
}

func NewMemoryLimiter(maxRequests int, windowLen time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows:     make(map[string]*window),
		maxRequests: maxRequests,
		windowLen:   windowLen,
		now:         time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.windowLen)}
		return true, nil
	}

	if w.count >= l.maxRequests {
		return false, nil
	}

	w.count++
	return true, nil
}
