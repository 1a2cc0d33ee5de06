package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tillage/pkg/core"
)

// watchDebounce coalesces the burst of events an editor save or an atomic
// rename produces into a single change.
const watchDebounce = 50 * time.Millisecond

// Watch reports changes made to the store file by other processes. Writes made
// through this collection are not reported. The channel is closed when ctx is
// done.
func (c *Collection[T]) Watch(ctx context.Context) (<-chan core.Event, error) {
	if !doublestar.ValidatePattern(c.config.WatchPattern) {
		return nil, fmt.Errorf("invalid watch pattern %q: %w", c.config.WatchPattern, doublestar.ErrBadPattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// The directory is watched, not the file: atomic writes replace the inode.
	if err := watcher.Add(c.config.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", c.config.Dir, err)
	}

	events := make(chan core.Event, 16)
	c.watcherActive.Store(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer c.watcherActive.Store(false)
		defer watcher.Close()
		return c.watchLoop(ctx, watcher, events)
	}, lifecycle.WithErrorHandler(func(err error) {
		c.logger.Error("watcher stopped", "error", err)
	}))

	return events, nil
}

func (c *Collection[T]) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan<- core.Event) error {
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if !c.relevant(event) {
				continue
			}
			c.logger.Debug("store file event", "name", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)
			pending = timer.C

		case <-pending:
			pending = nil
			e, changed := c.externalChange()
			if !changed {
				continue
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			c.logger.Error("fsnotify error", "error", err)
		}
	}
}

func (c *Collection[T]) relevant(event fsnotify.Event) bool {
	if isScratchFile(event.Name) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	ok, err := doublestar.Match(c.config.WatchPattern, filepath.Base(event.Name))
	return err == nil && ok
}

// externalChange inspects the store file after a burst of events. It drops
// the snapshot and returns an event unless the file is the one this
// collection wrote last.
func (c *Collection[T]) externalChange() (core.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	typ := core.EventModify
	info, err := os.Stat(c.path)
	switch {
	case errorIsAbsent(err):
		typ = core.EventDelete
	case err != nil:
		c.logger.Warn("failed to stat store after change", "error", err)
		return core.Event{}, false
	case c.lastWrite.matches(info):
		return core.Event{}, false
	}

	c.cache.invalidate()
	c.logger.Info("store changed on disk", "path", c.path, "type", typ)
	return core.Event{
		Type:       typ,
		Collection: c.config.Name,
		Source:     "filesystem",
		Timestamp:  time.Now().UnixMilli(),
	}, true
}
