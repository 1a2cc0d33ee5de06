package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tillage/pkg/core"
	"github.com/aretw0/tillage/pkg/git"
)

func newTasks(t *testing.T, dir string, mutate ...func(*Config)) *Collection[core.Task] {
	t.Helper()
	cfg := Config{Dir: dir, Name: core.TasksCollection}
	for _, m := range mutate {
		m(&cfg)
	}
	c := NewCollection[core.Task](cfg)
	require.NoError(t, c.Initialize(context.Background()))
	return c
}

func task(id, title string) core.Task {
	ts := core.NewTimestamp(time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC))
	return core.Task{ID: id, Title: title, Status: core.StatusTodo, CreatedAt: ts, UpdatedAt: ts}
}

func TestCollection_AbsentFileIsEmpty(t *testing.T) {
	c := newTasks(t, t.TempDir())

	tasks, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	_, err = os.Stat(c.Path())
	assert.True(t, os.IsNotExist(err), "initialize must not create the store file")
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	c := newTasks(t, t.TempDir())

	require.NoError(t, c.Insert(ctx, task("task_a", "a"), core.Append))
	require.NoError(t, c.Insert(ctx, task("task_b", "b"), core.Append))
	require.NoError(t, c.Insert(ctx, task("task_0", "zero"), core.Prepend))

	tasks, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"task_0", "task_a", "task_b"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	err = c.Insert(ctx, task("task_a", "dup"), core.Append)
	assert.ErrorIs(t, err, core.ErrConflict)

	updated, err := c.Modify(ctx, "task_a", func(tk *core.Task) error {
		tk.Status = core.StatusDone
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, updated.Status)

	got, err := c.Get(ctx, "task_a")
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, got.Status)

	_, err = c.Modify(ctx, "task_missing", func(*core.Task) error { return nil })
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = c.Modify(ctx, "task_a", func(tk *core.Task) error {
		tk.ID = "task_other"
		return nil
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	existed, err := c.Delete(ctx, "task_a")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = c.Delete(ctx, "task_a")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = c.Get(ctx, "task_a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCollection_ModifyErrorLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	c := newTasks(t, t.TempDir())
	require.NoError(t, c.Insert(ctx, task("task_a", "a"), core.Append))

	before, err := os.ReadFile(c.Path())
	require.NoError(t, err)

	boom := fmt.Errorf("boom")
	_, err = c.Modify(ctx, "task_a", func(tk *core.Task) error {
		tk.Title = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestCollection_DeleteMissingDoesNotWrite(t *testing.T) {
	c := newTasks(t, t.TempDir())

	existed, err := c.Delete(context.Background(), "task_none")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = os.Stat(c.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestCollection_ReopenIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newTasks(t, dir)
	require.NoError(t, first.Insert(ctx, task("task_a", "a"), core.Append))
	require.NoError(t, first.Insert(ctx, task("task_b", "b"), core.Append))
	written, err := first.List(ctx)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(first.Path())
	require.NoError(t, err)

	reopened := newTasks(t, dir)
	read, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, written, read)

	reencoded, err := JSONSerializer{}.Encode(core.TasksCollection, read)
	require.NoError(t, err)
	assert.Equal(t, string(onDisk), string(reencoded))
}

func TestCollection_SeesWritesFromOtherHandles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := newTasks(t, dir)
	b := newTasks(t, dir)

	_, err := a.List(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Insert(ctx, task("task_b", "from b"), core.Append))

	got, err := a.Get(ctx, "task_b")
	require.NoError(t, err)
	assert.Equal(t, "from b", got.Title)
}

func TestCollection_CorruptFile(t *testing.T) {
	ctx := context.Background()
	c := newTasks(t, t.TempDir())
	require.NoError(t, os.WriteFile(c.Path(), []byte(`{"tasks": [ {"id": `), 0644))

	tasks, err := c.List(ctx)
	require.NoError(t, err, "reads degrade to empty")
	assert.Empty(t, tasks)

	_, err = c.Get(ctx, "task_a")
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = c.Insert(ctx, task("task_a", "a"), core.Append)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)

	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	assert.Equal(t, `{"tasks": [ {"id": `, string(data), "corrupt file must not be overwritten")
}

func TestCollection_ReturnedRecordsDoNotAliasCache(t *testing.T) {
	ctx := context.Background()
	c := NewCollection[core.Note](Config{Dir: t.TempDir(), Name: core.NotesCollection})
	require.NoError(t, c.Initialize(ctx))

	tags := []string{"a"}
	require.NoError(t, c.Insert(ctx, core.Note{ID: "note_1", Title: "one", Tags: tags}, core.Prepend))
	tags[0] = "caller"

	got, err := c.Get(ctx, "note_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Tags)
	got.Tags[0] = "changed"

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"a"}, list[0].Tags)
	list[0].Tags[0] = "changed"

	_, err = c.Modify(ctx, "note_1", func(n *core.Note) error {
		n.Tags[0] = "rolled back"
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err = c.Get(ctx, "note_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestCollection_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writable := newTasks(t, dir)
	require.NoError(t, writable.Insert(ctx, task("task_a", "a"), core.Append))

	ro := newTasks(t, dir, func(c *Config) { c.ReadOnly = true })

	tasks, err := ro.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	assert.ErrorIs(t, ro.Insert(ctx, task("task_b", "b"), core.Append), core.ErrReadOnly)
	_, err = ro.Modify(ctx, "task_a", func(*core.Task) error { return nil })
	assert.ErrorIs(t, err, core.ErrReadOnly)
	_, err = ro.Delete(ctx, "task_a")
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestCollection_LockTimeout(t *testing.T) {
	c := newTasks(t, t.TempDir(), func(c *Config) { c.LockTimeout = 50 * time.Millisecond })

	require.NoError(t, os.WriteFile(c.lockPath, []byte("1\n"), 0644))

	err := c.Insert(context.Background(), task("task_a", "a"), core.Append)
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestCollection_ConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Separate handles share nothing but the lock file, like separate
	// processes would.
	handles := []*Collection[core.Task]{newTasks(t, dir), newTasks(t, dir), newTasks(t, dir)}

	const perHandle = 10
	var wg sync.WaitGroup
	for h, c := range handles {
		for i := 0; i < perHandle; i++ {
			wg.Add(1)
			go func(c *Collection[core.Task], id string) {
				defer wg.Done()
				if err := c.Insert(ctx, task(id, id), core.Append); err != nil {
					t.Errorf("insert %s: %v", id, err)
				}
			}(c, fmt.Sprintf("task_%d_%d", h, i))
		}
	}
	wg.Wait()

	tasks, err := newTasks(t, dir).List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, len(handles)*perHandle)
}

func TestCollection_YAMLFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := newTasks(t, dir, func(c *Config) { c.Serializer = YAMLSerializer{} })

	require.NoError(t, c.Insert(ctx, task("task_a", "a"), core.Append))
	assert.Equal(t, filepath.Join(dir, "tasks.yaml"), c.Path())

	reopened := newTasks(t, dir, func(c *Config) { c.Serializer = YAMLSerializer{} })
	got, err := reopened.Get(ctx, "task_a")
	require.NoError(t, err)
	assert.Equal(t, task("task_a", "a"), got)
}

func TestCollection_Versioning(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	dir := t.TempDir()
	c := newTasks(t, dir, func(c *Config) { c.Versioning = true })

	require.NoError(t, c.Insert(ctx, task("task_a", "a"), core.Append))
	_, err := c.Modify(core.WithChangeReason(ctx, "move task_a to done"), "task_a", func(tk *core.Task) error {
		tk.Status = core.StatusDone
		return nil
	})
	require.NoError(t, err)

	log, err := git.NewClient(dir, nil).Run(ctx, "log", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "feat(tasks): move task_a to done\nfeat(tasks): create task_a", log)
}

func TestCollection_State(t *testing.T) {
	ctx := context.Background()
	c := newTasks(t, t.TempDir())
	require.NoError(t, c.Insert(ctx, task("task_a", "a"), core.Append))

	state, ok := c.State().(CollectionState)
	require.True(t, ok)
	assert.Equal(t, "tasks", state.Name)
	assert.Equal(t, ".json", state.Format)
	assert.Equal(t, int64(1), state.CachedRecords)
	assert.Equal(t, uint64(1), state.Writes)
	assert.NotNil(t, state.LastWrite)
	assert.Equal(t, "fs-collection", c.ComponentType())
}
