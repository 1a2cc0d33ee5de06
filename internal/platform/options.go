package platform

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tillage/pkg/core"
)

// Adapter names.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
)

// options holds the internal configuration of an App.
type options struct {
	logger      *slog.Logger
	adapter     string
	format      string
	readOnly    bool
	versioning  bool
	lockTimeout time.Duration
	eventBuffer int
	registerer  prometheus.Registerer
	clock       core.Clock
	tasks       core.Repository[core.Task]
	notes       core.Repository[core.Note]
}

// Option defines a functional option for configuring an App.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: AdapterFS,
		format:  "json",
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithFormat selects the document format of the fs adapter ("json" or "yaml").
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithReadOnly enables read-only mode: every mutation fails with
// core.ErrReadOnly and nothing is created on disk.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithVersioning commits the store files to git after every write (fs adapter).
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithLockTimeout bounds how long a write waits for the store lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithEventBuffer sets the per-subscriber buffer of the event broker.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithRegisterer registers the operation metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(c core.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithRepositories injects custom storage (e.g. mocks). When set, the adapter
// option is ignored.
func WithRepositories(tasks core.Repository[core.Task], notes core.Repository[core.Note]) Option {
	return func(o *options) {
		o.tasks = tasks
		o.notes = notes
	}
}
