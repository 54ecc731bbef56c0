// internal/store/memory.go
//
// In-memory implementation of Store.
//
// Characteristics:
//   - Rounds kept in insertion order in a slice, oldest dropped past capacity.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// DefaultCapacity is the number of rounds a memory store retains.
const DefaultCapacity = 1000

// memory is a slice-backed Store implementation.
type memory struct {
	mu       sync.RWMutex // guards rounds
	rounds   []Round
	capacity int
}

// NewMemoryStore constructs an in-memory Store holding at most capacity rounds.
// A non-positive capacity selects DefaultCapacity.
func NewMemoryStore(capacity int) Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &memory{capacity: capacity}
}

// Record appends r, evicting the oldest round when full.
func (m *memory) Record(ctx context.Context, r Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rounds) == m.capacity {
		m.rounds = append(m.rounds[:0], m.rounds[1:]...)
	}
	m.rounds = append(m.rounds, r)
	return nil
}

// Recent copies the newest limit rounds in reverse insertion order.
func (m *memory) Recent(ctx context.Context, limit int) ([]Round, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, len(m.rounds))
	out := make([]Round, 0, n)
	for i := len(m.rounds) - 1; i >= len(m.rounds)-n; i-- {
		out = append(out, m.rounds[i])
	}
	return out, nil
}

func (m *memory) Close() error { return nil }
