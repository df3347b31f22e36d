package memory

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	n       int
	resetAt time.Time
}

// AttemptCounter counts failures per key inside a fixed window. It is used
// when no Redis address is configured.
type AttemptCounter struct {
	mu      sync.Mutex
	entries map[string]*counter
	now     func() time.Time
}

func NewAttemptCounter(now func() time.Time) *AttemptCounter {
	if now == nil {
		now = time.Now
	}
	return &AttemptCounter{entries: make(map[string]*counter), now: now}
}

func (c *AttemptCounter) Incr(_ context.Context, key string, window time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &counter{resetAt: now.Add(window)}
		c.entries[key] = e
	}
	e.n++
	return e.n, nil
}

func (c *AttemptCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
