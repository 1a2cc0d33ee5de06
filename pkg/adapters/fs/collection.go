package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/tillage/internal/lockfile"
	"github.com/aretw0/tillage/pkg/core"
	"github.com/aretw0/tillage/pkg/git"
)

// DefaultLockTimeout bounds how long a mutation waits for the store lock.
const DefaultLockTimeout = 5 * time.Second

// Config holds the configuration for a file-backed collection.
type Config struct {
	// Dir is the data directory holding the store file.
	Dir string
	// Name is the collection name. It is the top-level key of the document
	// and the base name of the file.
	Name string
	// Serializer picks the on-disk format. Nil means JSON.
	Serializer Serializer
	// ReadOnly rejects every mutation with core.ErrReadOnly.
	ReadOnly bool
	// Versioning commits the store file to git after every write.
	Versioning bool
	// LockTimeout bounds lock acquisition. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// WatchPattern is the doublestar pattern, matched against base names,
	// of files whose changes Watch reports. Empty means the store file only.
	WatchPattern string
	Logger       *slog.Logger
}

// Collection implements core.Repository[T] on top of a single document file.
// Every read-modify-write cycle runs under an in-process mutex and a lock file
// next to the document, so concurrent writers never lose updates.
type Collection[T core.Record] struct {
	path     string
	lockPath string
	config   Config
	ser      Serializer
	git      *git.Client
	logger   *slog.Logger

	mu        sync.Mutex
	cache     snapshot[T]
	lastWrite fileStamp

	watcherActive atomic.Bool
	cached        atomic.Int64
	writes        atomic.Uint64
	lastWriteAt   atomic.Int64
}

var _ core.Repository[core.Task] = (*Collection[core.Task])(nil)

// NewCollection creates a collection stored at <Dir>/<Name><ext>.
func NewCollection[T core.Record](config Config) *Collection[T] {
	if config.Serializer == nil {
		config.Serializer = JSONSerializer{}
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	file := config.Name + config.Serializer.Ext()
	if config.WatchPattern == "" {
		config.WatchPattern = file
	}

	return &Collection[T]{
		path:     filepath.Join(config.Dir, file),
		lockPath: filepath.Join(config.Dir, "."+file+".lock"),
		config:   config,
		ser:      config.Serializer,
		git:      git.NewClient(config.Dir, config.Logger),
		logger:   config.Logger.With("collection", config.Name),
	}
}

// Path returns the location of the store file.
func (c *Collection[T]) Path() string { return c.path }

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.config.Name }

// Initialize creates the data directory and, with versioning enabled, the git
// repository. The store file itself is created by the first write.
func (c *Collection[T]) Initialize(ctx context.Context) error {
	if c.config.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(c.config.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w: %w", core.ErrStorageUnavailable, err)
	}

	if c.config.Versioning {
		if !git.IsInstalled() {
			return fmt.Errorf("versioning requires git: %w", core.ErrStorageUnavailable)
		}
		if !c.git.IsRepo(ctx) {
			if err := c.git.Init(ctx); err != nil {
				return fmt.Errorf("failed to git init: %w", err)
			}
		}
	}
	return nil
}

// List returns every record in stored order. An absent, unreadable or
// unparsable document reads as empty.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(false)
	if err != nil {
		c.logger.Warn("store unreadable, treating as empty", "path", c.path, "error", err)
		return []T{}, nil
	}
	if records == nil {
		return []T{}, nil
	}
	return core.CloneRecords(records), nil
}

// Get retrieves a record by its ID.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	if i := indexOf(records, id); i >= 0 {
		return records[i], nil
	}
	return zero, fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrNotFound)
}

// Insert stores rec at the head or tail of the document.
func (c *Collection[T]) Insert(ctx context.Context, rec T, at core.Placement) error {
	id := rec.GetID()
	if id == "" {
		return fmt.Errorf("%w: record has no id", core.ErrInvalidInput)
	}

	reason := core.ChangeReason(ctx, "create "+id)
	return c.mutate(ctx, reason, func(records []T) ([]T, bool, error) {
		if indexOf(records, id) >= 0 {
			return nil, false, fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrConflict)
		}
		if at == core.Prepend {
			return append([]T{rec}, records...), true, nil
		}
		return append(records, rec), true, nil
	})
}

// Modify applies fn to the record with the given id and persists the result.
func (c *Collection[T]) Modify(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var updated T

	reason := core.ChangeReason(ctx, "update "+id)
	err := c.mutate(ctx, reason, func(records []T) ([]T, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, fmt.Errorf("%s %s: %w", c.config.Name, id, core.ErrNotFound)
		}
		rec := records[i]
		if err := fn(&rec); err != nil {
			return nil, false, err
		}
		if rec.GetID() != id {
			return nil, false, fmt.Errorf("%w: record id cannot change", core.ErrInvalidInput)
		}
		records[i] = rec
		updated = rec
		return records, true, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Delete removes the record with the given id. The file is left untouched
// when there is nothing to remove.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	var existed bool

	reason := core.ChangeReason(ctx, "delete "+id)
	err := c.mutate(ctx, reason, func(records []T) ([]T, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, nil
		}
		existed = true
		return slices.Delete(records, i, i+1), true, nil
	})
	return existed, err
}

// mutate runs one locked read-modify-write cycle. fn reports whether the
// records changed; unchanged documents are not rewritten.
func (c *Collection[T]) mutate(ctx context.Context, reason string, fn func([]T) ([]T, bool, error)) error {
	if c.config.ReadOnly {
		return fmt.Errorf("%s: %w", c.config.Name, core.ErrReadOnly)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	release, err := lockfile.Acquire(ctx, c.lockPath, c.config.LockTimeout)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w: %w", c.path, core.ErrStorageUnavailable, err)
	}
	defer release()

	records, err := c.load(true)
	if err != nil {
		return fmt.Errorf("refusing to overwrite %s: %w: %w", c.path, core.ErrStorageUnavailable, err)
	}

	// fn edits a copy: the snapshot must only ever hold what is on disk.
	next, changed, err := fn(core.CloneRecords(records))
	if err != nil || !changed {
		return err
	}
	return c.write(ctx, next, reason)
}

// load returns the records of the current file version. Callers hold c.mu.
// Fresh forces a read from disk even when the snapshot looks current, which
// mutations need since mtimes are coarse.
func (c *Collection[T]) load(fresh bool) ([]T, error) {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		c.cache.invalidate()
		c.cached.Store(0)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat store: %w", err)
	}
	if !fresh && c.cache.fresh(info) {
		return c.cache.records, c.cache.err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	var records []T
	decodeErr := c.ser.Decode(data, c.config.Name, &records)
	if decodeErr != nil {
		records = nil
	}
	c.cache.store(info, records, decodeErr)
	c.cached.Store(int64(len(records)))
	return records, decodeErr
}

// write persists records atomically, refreshes the snapshot and, when
// versioning is on, commits the file. Callers hold c.mu and the lock file.
func (c *Collection[T]) write(ctx context.Context, records []T, reason string) error {
	if records == nil {
		records = []T{}
	}

	data, err := c.ser.Encode(c.config.Name, records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.config.Name, err)
	}
	if err := os.MkdirAll(c.config.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w: %w", core.ErrStorageUnavailable, err)
	}
	if err := writeFileAtomic(c.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	if info, err := os.Stat(c.path); err == nil {
		c.cache.store(info, records, nil)
		c.lastWrite = stampOf(info)
		c.cached.Store(int64(len(records)))
	} else {
		c.cache.invalidate()
	}
	c.writes.Add(1)
	c.lastWriteAt.Store(time.Now().UnixMilli())
	c.logger.Debug("store written", "path", c.path, "records", len(records), "reason", reason)

	if c.config.Versioning {
		c.commit(ctx, reason)
	}
	return nil
}

// commit versions the store file. The write already succeeded, so a failed
// commit is logged rather than reported to the caller.
func (c *Collection[T]) commit(ctx context.Context, reason string) {
	unlock, err := c.git.Lock(ctx, c.config.LockTimeout)
	if err != nil {
		c.logger.Error("failed to acquire git lock", "error", err)
		return
	}
	defer unlock()

	msg := git.FormatMessage(git.CommitTypeFeat, c.config.Name, reason, "")
	if err := c.git.CommitFiles(ctx, msg, filepath.Base(c.path)); err != nil {
		c.logger.Error("failed to commit store", "error", err)
	}
}

func indexOf[T core.Record](records []T, id string) int {
	return slices.IndexFunc(records, func(r T) bool { return r.GetID() == id })
}

// errorIsAbsent reports whether err means the store file does not exist.
func errorIsAbsent(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
