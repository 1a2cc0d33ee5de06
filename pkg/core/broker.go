package core

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"
)

// DefaultEventBuffer is the per-subscriber buffer used when none is given.
const DefaultEventBuffer = 100

// Broker fans change events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Broker struct {
	mu       sync.RWMutex
	subs     map[uint64]chan Event
	nextID   uint64
	buffer   int
	closed   bool
	done     chan struct{}
	dropped  atomic.Uint64
	watchers atomic.Int64
	logger   *slog.Logger
}

// NewBroker creates a broker with the given per-subscriber buffer size.
// Zero means DefaultEventBuffer.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Broker{
		subs:   make(map[uint64]chan Event),
		done:   make(chan struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Publish delivers e to every current subscriber.
func (b *Broker) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
			b.logger.Warn("event dropped for slow subscriber", "subscriber", id, "event", e.String())
		}
	}
}

// Subscribe returns a channel of events that is closed when ctx is done or
// the broker is closed.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	b.watchers.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer b.watchers.Add(-1)
		select {
		case <-ctx.Done():
			b.unsubscribe(id)
		case <-b.done:
		}
		return nil
	})
	return ch
}

// Pipe republishes every event read from src until src is closed or ctx is
// done.
func (b *Broker) Pipe(ctx context.Context, src <-chan Event) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-src:
				if !ok {
					return nil
				}
				b.Publish(e)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		b.logger.Error("event pipe failed", "error", err)
	}))
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because of full buffers.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}
