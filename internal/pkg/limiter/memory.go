package limiter

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	count    int64
	openedAt time.Time
}

// Memory implements Limiter with an in-process map. Suitable for tests and
// single-replica deployments; the allowance is not shared across processes.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	limit   int64
	window  time.Duration
	now     func() time.Time
}

// NewMemory creates an in-process limiter allowing limit hits per window.
func NewMemory(limit int, window time.Duration) *Memory {
	if limit <= 0 {
		limit = 10
	}

	if window <= 0 {
		window = time.Minute
	}

	return &Memory{
		windows: make(map[string]*memoryWindow),
		limit:   int64(limit),
		window:  window,
		now:     time.Now,
	}
}

// Allow records one hit for key and reports whether it is within the allowance.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	w, ok := m.windows[key]
	if !ok || now.Sub(w.openedAt) >= m.window {
		w = &memoryWindow{openedAt: now}
		m.windows[key] = w
	}

	w.count++

	return w.count <= m.limit, nil
}

// Reset clears the counter for key.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.windows, key)

	return nil
}
