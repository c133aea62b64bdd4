package repository

import (
	"context"
	"sync"

	"github.com/learnhub/catalog-service/internal/catalog"
)

// MemoryRepo is an in-memory repository used for tests, local development and
// as the working set of the snapshot backend. List returns records in
// insertion order.
type MemoryRepo[T catalog.Record] struct {
	mu    sync.RWMutex
	order []string
	store map[string]T
}

func NewMemoryRepo[T catalog.Record]() *MemoryRepo[T] {
	return &MemoryRepo[T]{store: make(map[string]T)}
}

// NewMemoryStore returns a Store whose collections live in process memory.
func NewMemoryStore() *Store {
	return &Store{
		Backend:   "memory",
		Resources: NewMemoryRepo[catalog.Resource](),
		Ratings:   NewMemoryRepo[catalog.Rating](),
		Feedback:  NewMemoryRepo[catalog.Feedback](),
	}
}

func (m *MemoryRepo[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.store[id]; ok {
		return rec, nil
	}
	var zero T
	return zero, ErrNotFound
}

func (m *MemoryRepo[T]) List(_ context.Context, filter Filter) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		rec := m.store[id]
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryRepo[T]) Insert(_ context.Context, rec T) (T, error) {
	id := rec.RecordID()
	if id == "" {
		return rec, ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; ok {
		return rec, ErrDuplicate
	}
	m.store[id] = rec
	m.order = append(m.order, id)
	return rec, nil
}

func (m *MemoryRepo[T]) Update(_ context.Context, id string, patch Patch) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	next, err := applyPatch(cur, patch)
	if err != nil {
		return cur, err
	}
	m.store[id] = next
	return next, nil
}

func (m *MemoryRepo[T]) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(id), nil
}

func (m *MemoryRepo[T]) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, id := range m.order {
		if filter.Matches(m.store[id]) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		m.deleteLocked(id)
	}
	return int64(len(ids)), nil
}

func (m *MemoryRepo[T]) deleteLocked(id string) bool {
	if _, ok := m.store[id]; !ok {
		return false
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// all returns every record in insertion order.
func (m *MemoryRepo[T]) all() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.store[id])
	}
	return out
}

// load replaces the repository contents, keeping the given order.
func (m *MemoryRepo[T]) load(recs []T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]T, len(recs))
	m.order = make([]string, 0, len(recs))
	for _, rec := range recs {
		id := rec.RecordID()
		if _, dup := m.store[id]; dup || id == "" {
			continue
		}
		m.store[id] = rec
		m.order = append(m.order, id)
	}
}
