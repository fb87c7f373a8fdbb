package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory is a bounded in-process History. When full, the oldest entry is
// overwritten.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewMemory returns a history holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultListLimit
	}
	return &Memory{entries: make([]Entry, capacity)}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	e = prepare(e)
	e.Errors = slices.Clone(e.Errors)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Memory) List(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = len(m.entries)
	}
	limit = min(limit, n)

	out := make([]Entry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.ID == id && id != uuid.Nil {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}
