// Package platform wires the stores, services and event broker of a tillage
// workspace together.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tillage/pkg/adapters/fs"
	"github.com/aretw0/tillage/pkg/adapters/sqlite"
	"github.com/aretw0/tillage/pkg/core"
)

// App is an opened workspace.
type App struct {
	DataDir string
	Tasks   *core.TaskService
	Notes   *core.NoteService
	Events  *core.Broker
	Metrics *core.Metrics

	tasks   core.Repository[core.Task]
	notes   core.Repository[core.Note]
	closers []core.Closer
	logger  *slog.Logger
}

// Open prepares the stores under dataDir and returns the services on top of
// them.
func Open(ctx context.Context, dataDir string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	app := &App{DataDir: dataDir, logger: o.logger}

	switch {
	case o.tasks != nil && o.notes != nil:
		app.tasks, app.notes = o.tasks, o.notes
	case o.adapter == AdapterFS:
		if err := app.openFS(o); err != nil {
			return nil, err
		}
	case o.adapter == AdapterSQLite:
		if err := app.openSQLite(o); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := app.tasks.Initialize(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize tasks: %w", err)
	}
	if err := app.notes.Initialize(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize notes: %w", err)
	}

	app.Events = core.NewBroker(o.eventBuffer, o.logger)
	app.Metrics = core.NewMetrics(o.registerer)

	serviceOpts := []core.ServiceOption{
		core.WithBroker(app.Events),
		core.WithMetrics(app.Metrics),
		core.WithServiceLogger(o.logger),
		core.WithClock(o.clock),
	}
	app.Tasks = core.NewTaskService(app.tasks, serviceOpts...)
	app.Notes = core.NewNoteService(app.notes, serviceOpts...)

	o.logger.Debug("workspace opened", "data_dir", dataDir, "adapter", o.adapter, "read_only", o.readOnly)
	return app, nil
}

func (a *App) openFS(o *options) error {
	ser, err := fs.SerializerFor(o.format)
	if err != nil {
		return err
	}
	config := fs.Config{
		Dir:         a.DataDir,
		Serializer:  ser,
		ReadOnly:    o.readOnly,
		Versioning:  o.versioning,
		LockTimeout: o.lockTimeout,
		Logger:      o.logger,
	}

	config.Name = core.TasksCollection
	a.tasks = fs.NewCollection[core.Task](config)
	config.Name = core.NotesCollection
	a.notes = fs.NewCollection[core.Note](config)
	return nil
}

func (a *App) openSQLite(o *options) error {
	if o.versioning {
		o.logger.Warn("versioning is only supported by the fs adapter, ignoring")
	}
	open := sqlite.Open
	if o.readOnly {
		open = sqlite.OpenReadOnly
	}
	store, err := open(filepath.Join(a.DataDir, sqlite.FileName), o.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store)

	a.tasks = sqlite.NewCollection[core.Task](store, sqlite.Config{Name: core.TasksCollection, ReadOnly: o.readOnly})
	a.notes = sqlite.NewCollection[core.Note](store, sqlite.Config{Name: core.NotesCollection, ReadOnly: o.readOnly})
	return nil
}

// Watch starts watching every store that supports it and republishes
// external changes on Events. It returns the number of stores watched.
func (a *App) Watch(ctx context.Context) (int, error) {
	watched := 0
	for _, repo := range []any{a.tasks, a.notes} {
		w, ok := repo.(core.Watchable)
		if !ok {
			continue
		}
		events, err := w.Watch(ctx)
		if err != nil {
			return watched, err
		}
		a.Events.Pipe(ctx, events)
		watched++
	}
	if watched == 0 {
		a.logger.Info("storage adapter does not support watching")
	}
	return watched, nil
}

// Components returns the introspectable parts of the workspace keyed by
// component type.
func (a *App) Components() map[string]any {
	states := make(map[string]any)
	for _, c := range []any{a.Tasks, a.Notes, a.Events, a.tasks, a.notes} {
		intro, ok := c.(introspection.Introspectable)
		if !ok {
			continue
		}
		key := "component"
		if comp, ok := c.(introspection.Component); ok {
			key = comp.ComponentType()
		}
		if named, ok := c.(interface{ Name() string }); ok {
			key += ":" + named.Name()
		}
		states[key] = intro.State()
	}
	return states
}

// Close stops the broker and releases storage handles.
func (a *App) Close() error {
	if a.Events != nil {
		a.Events.Close()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
