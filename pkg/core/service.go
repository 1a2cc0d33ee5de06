package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Collection names, also used as the top-level key of the store documents.
const (
	TasksCollection = "tasks"
	NotesCollection = "notes"
)

// maxIDAttempts bounds id regeneration after an ErrConflict on insert.
const maxIDAttempts = 3

// serviceOptions holds the dependencies shared by the record services.
type serviceOptions struct {
	clock   Clock
	newID   IDGenerator
	broker  *Broker
	metrics *Metrics
	logger  *slog.Logger
}

// ServiceOption configures a TaskService or NoteService.
type ServiceOption func(*serviceOptions)

func defaultServiceOptions() *serviceOptions {
	return &serviceOptions{
		clock:  NewMonotonicClock(nil),
		newID:  NewID,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func buildServiceOptions(opts []ServiceOption) *serviceOptions {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithClock sets the clock used to stamp records.
func WithClock(c Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithIDGenerator overrides how record ids are produced.
func WithIDGenerator(gen IDGenerator) ServiceOption {
	return func(o *serviceOptions) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithBroker publishes a change event for every successful mutation.
func WithBroker(b *Broker) ServiceOption {
	return func(o *serviceOptions) {
		o.broker = b
	}
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *Metrics) ServiceOption {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithServiceLogger sets the logger for the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func (o *serviceOptions) publish(collection string, typ EventType, id string) {
	o.broker.Publish(Event{
		Type:       typ,
		Collection: collection,
		ID:         id,
		Source:     "service",
		Timestamp:  time.Now().UnixMilli(),
	})
}

// insertWithFreshID inserts the record built by build, regenerating the id on
// collision.
func insertWithFreshID[T Record](ctx context.Context, o *serviceOptions, repo Repository[T], prefix string, at Placement, build func(id string) T) (T, error) {
	var rec T
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		rec = build(o.newID(prefix))
		err := repo.Insert(ctx, rec, at)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrConflict) {
			var zero T
			return zero, err
		}
		o.logger.Warn("id collision, regenerating", "id", rec.GetID(), "attempt", attempt)
	}
	var zero T
	return zero, fmt.Errorf("could not allocate a unique %s id: %w", prefix, ErrConflict)
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	return nil
}

// defaultReason attaches reason to ctx unless the caller already set one.
func defaultReason(ctx context.Context, reason string) context.Context {
	if ChangeReason(ctx, "") != "" {
		return ctx
	}
	return WithChangeReason(ctx, reason)
}
