package security

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"
)

// Limiter bounds request rates per key within a fixed time window.
type Limiter interface {
	// Allow reports whether one more request under key fits inside the
	// current window of max requests per window duration.
	Allow(ctx context.Context, key string, max int, window time.Duration) bool
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter. Entries expire
// lazily on access; a small fraction of calls additionally sweeps the whole
// table so abandoned keys do not accumulate. Per-process only: running more
// than one instance multiplies the effective limit, use RedisLimiter there.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	now         func() time.Time
	sweepChance float64
	rnd         func() float64
}

// MemoryOption configures MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		if fn != nil {
			l.now = fn
		}
	}
}

// WithSweepChance overrides the per-call sweep probability.
func WithSweepChance(p float64) MemoryOption {
	return func(l *MemoryLimiter) {
		if p >= 0 && p <= 1 {
			l.sweepChance = p
		}
	}
}

// NewMemoryLimiter constructs a limiter with an empty table.
func NewMemoryLimiter(opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		entries:     make(map[string]*windowEntry),
		now:         time.Now,
		sweepChance: 0.01,
		rnd:         mathrand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow implements Limiter. A rejected call does not mutate the entry.
func (l *MemoryLimiter) Allow(_ context.Context, key string, max int, window time.Duration) bool {
	if max <= 0 || window <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.rnd() < l.sweepChance {
		l.sweepLocked(now)
	}

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: now.Add(window)}
		return true
	}
	if e.count >= max {
		return false
	}
	e.count++
	return true
}

// Size returns the number of tracked keys.
func (l *MemoryLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for k, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, k)
		}
	}
}
