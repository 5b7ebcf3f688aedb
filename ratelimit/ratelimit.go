// Package ratelimit implements fixed-window request limits with an in-memory
// store for a single node and a Redis store for a fleet.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Policy is a request budget per window.
type Policy struct {
	Name   string        `koanf:"name"`
	Limit  int           `koanf:"limit"`
	Window time.Duration `koanf:"window"`
}

func decide(p Policy, count int, resetIn time.Duration) Decision {
	d := Decision{Allowed: count <= p.Limit, Limit: p.Limit, Remaining: max(p.Limit-count, 0)}
	if !d.Allowed {
		d.RetryAfter = resetIn
	}
	return d
}

type window struct {
	count int
	reset time.Time
}

// Memory counts in process. Counters are lost on restart.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
	calls   int
}

func NewMemory(p Policy, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{policy: p, now: now, windows: make(map[string]*window)}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(m.policy.Window)}
		m.windows[key] = w
	}
	w.count++

	m.calls++
	if m.calls%1024 == 0 {
		m.sweep(now)
	}
	return decide(m.policy, w.count, w.reset.Sub(now)), nil
}

// sweep drops expired windows so idle keys do not accumulate.
func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.reset) {
			delete(m.windows, k)
		}
	}
}
