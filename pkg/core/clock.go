package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock issues record timestamps.
type Clock interface {
	Now() Timestamp
}

// MonotonicClock never issues the same millisecond twice: when the wall clock
// has not advanced past the last issued value it returns last+1ms instead.
type MonotonicClock struct {
	mu   sync.Mutex
	last Timestamp
	wall func() time.Time
}

// NewMonotonicClock returns a clock backed by wall, or time.Now when nil.
func NewMonotonicClock(wall func() time.Time) *MonotonicClock {
	if wall == nil {
		wall = time.Now
	}
	return &MonotonicClock{wall: wall}
}

func (c *MonotonicClock) Now() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := NewTimestamp(c.wall())
	if !now.After(c.last.Time) {
		now = NewTimestamp(c.last.Add(time.Millisecond))
	}
	c.last = now
	return now
}

// later returns a timestamp strictly after prev, preferring the clock reading.
// It keeps updatedAt increasing even when the stored record came from a
// process whose clock ran ahead.
func later(c Clock, prev Timestamp) Timestamp {
	now := c.Now()
	if now.After(prev.Time) {
		return now
	}
	return NewTimestamp(prev.Add(time.Millisecond))
}

// IDGenerator produces record identifiers.
type IDGenerator func(prefix string) string

// NewID returns prefix_<uuid v4>.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
