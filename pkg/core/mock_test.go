package core_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/tillage/pkg/core"
)

// memRepository implements core.Repository in memory.
type memRepository[T core.Record] struct {
	mu      sync.Mutex
	records []T
	failing error
	reasons []string
}

func newMemRepository[T core.Record]() *memRepository[T] {
	return &memRepository[T]{}
}

func (m *memRepository[T]) Initialize(ctx context.Context) error { return nil }

func (m *memRepository[T]) List(ctx context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records), nil
}

func (m *memRepository[T]) Get(ctx context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.GetID() == id {
			return r, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s: %w", id, core.ErrNotFound)
}

func (m *memRepository[T]) Insert(ctx context.Context, rec T, at core.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, core.ChangeReason(ctx, ""))
	if m.failing != nil {
		return m.failing
	}
	for _, r := range m.records {
		if r.GetID() == rec.GetID() {
			return core.ErrConflict
		}
	}
	if at == core.Prepend {
		m.records = append([]T{rec}, m.records...)
	} else {
		m.records = append(m.records, rec)
	}
	return nil
}

func (m *memRepository[T]) Modify(ctx context.Context, id string, fn func(*T) error) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, core.ChangeReason(ctx, ""))
	var zero T
	for i := range m.records {
		if m.records[i].GetID() != id {
			continue
		}
		rec := m.records[i]
		if err := fn(&rec); err != nil {
			return zero, err
		}
		if m.failing != nil {
			return zero, m.failing
		}
		m.records[i] = rec
		return rec, nil
	}
	return zero, fmt.Errorf("%s: %w", id, core.ErrNotFound)
}

func (m *memRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, core.ChangeReason(ctx, ""))
	if m.failing != nil {
		return false, m.failing
	}
	for i, r := range m.records {
		if r.GetID() == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), step: step}
}

func (c *stepClock) Now() core.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := core.NewTimestamp(c.now)
	c.now = c.now.Add(c.step)
	return ts
}

// sequenceIDs hands out the given ids in order, then falls back to core.NewID.
func sequenceIDs(ids ...string) core.IDGenerator {
	var mu sync.Mutex
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return core.NewID(prefix)
		}
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

func ptr[T any](v T) *T { return &v }
