package tillage

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tillage/internal/platform"
	"github.com/aretw0/tillage/pkg/core"
	"github.com/aretw0/tillage/pkg/git"
)

// --- Types ---

// App is an opened workspace: the task and note services, the event broker
// and the metrics.
type App = platform.App

// Config is the on-disk configuration (tillage.yaml).
type Config = platform.Config

// Task, Note and Event are the records and change notifications of a
// workspace.
type (
	Task  = core.Task
	Note  = core.Note
	Event = core.Event
)

// --- Configuration ---

// Option defines a functional option for configuring a workspace.
type Option = platform.Option

// Storage adapters.
const (
	AdapterFS     = platform.AdapterFS
	AdapterSQLite = platform.AdapterSQLite
)

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithFormat selects the document format of the fs adapter ("json" or "yaml").
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithReadOnly rejects every mutation with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithVersioning commits the store files to git after every write.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithLockTimeout bounds how long a write waits for the store lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// WithEventBuffer sets the per-subscriber buffer of the event broker.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithRegisterer registers the operation metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return platform.WithRegisterer(reg)
}

// WithRepositories injects custom storage for both collections.
func WithRepositories(tasks core.Repository[core.Task], notes core.Repository[core.Note]) Option {
	return platform.WithRepositories(tasks, notes)
}

// --- Factory ---

// Open opens (creating if needed) the workspace stored in dataDir.
func Open(ctx context.Context, dataDir string, opts ...Option) (*App, error) {
	return platform.Open(ctx, dataDir, opts...)
}

// LoadConfig reads a tillage.yaml over the defaults.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// FindRoot looks upwards from startDir for a workspace root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Change reasons ---

// WithChangeReason attaches the subject of the versioning commit to ctx.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return core.WithChangeReason(ctx, reason)
}

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return git.FormatMessage(ctype, scope, subject, body)
}
