package core_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tillage/pkg/core"
)

func newNoteService(t *testing.T, opts ...core.ServiceOption) *core.NoteService {
	t.Helper()
	return core.NewNoteService(newMemRepository[core.Note](), opts...)
}

func TestNoteService_CreateThenGet(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.NoteInput{Title: "Groceries", Content: ptr("milk"), Tags: []string{"home"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ID, "note_"))
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestNoteService_CreateDefaults(t *testing.T) {
	svc := newNoteService(t)

	created, err := svc.Create(context.Background(), core.NoteInput{Title: "bare"})
	require.NoError(t, err)
	assert.Equal(t, "", created.Content)
	assert.NotNil(t, created.Tags)
	assert.Empty(t, created.Tags)
}

func TestNoteService_CreatePrepends(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	older, err := svc.Create(ctx, core.NoteInput{Title: "older"})
	require.NoError(t, err)
	newer, err := svc.Create(ctx, core.NoteInput{Title: "newer"})
	require.NoError(t, err)

	notes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, newer.ID, notes[0].ID)
	assert.Equal(t, older.ID, notes[1].ID)
}

func TestNoteService_UpdateMergesFields(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.NoteInput{Title: "t", Content: ptr("c"), Tags: []string{"a"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, core.NotePatch{Tags: &[]string{"b", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "t", updated.Title)
	assert.Equal(t, "c", updated.Content)
	assert.Equal(t, []string{"b", "b"}, updated.Tags, "duplicate tags are kept as given")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt.Time))

	updated, err = svc.Update(ctx, created.ID, core.NotePatch{Tags: &[]string{}})
	require.NoError(t, err)
	assert.NotNil(t, updated.Tags)
	assert.Empty(t, updated.Tags)
}

func TestNoteService_UpdateRejectsEmptyTag(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.NoteInput{Title: "t"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, core.NotePatch{Tags: &[]string{"ok", ""}})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestNoteService_NotFound(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "note_does_not_exist")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Update(ctx, "note_does_not_exist", core.NotePatch{})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestNoteService_DeleteTwice(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.NoteInput{Title: "gone"})
	require.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, created.ID))
	assert.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNoteService_TagsAreDistinctAndSorted(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.NoteInput{Title: "one", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, core.NoteInput{Title: "two", Tags: []string{"b", "c"}})
	require.NoError(t, err)

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tags)
}

func TestNoteService_ListByTag(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	work, _ := svc.Create(ctx, core.NoteInput{Title: "standup", Tags: []string{"work"}})
	_, _ = svc.Create(ctx, core.NoteInput{Title: "recipe", Tags: []string{"food"}})

	notes, err := svc.ListByTag(ctx, "work")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, work.ID, notes[0].ID)

	notes, err = svc.ListByTag(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteService_Search(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, core.NoteInput{Title: "Meeting notes", Content: ptr("quarterly planning")})
	recipe, _ := svc.Create(ctx, core.NoteInput{Title: "Pancakes", Content: ptr("flour eggs milk"), Tags: []string{"recipe"}})

	found, err := svc.Search(ctx, "pancak")
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, recipe.ID, found[0].ID)

	all, err := svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.Search(ctx, "zzzqqq")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNoteService_KeepsCallerChangeReason(t *testing.T) {
	repo := newMemRepository[core.Note]()
	svc := core.NewNoteService(repo)
	ctx := core.WithChangeReason(context.Background(), "tidy notes")

	created, err := svc.Create(ctx, core.NoteInput{Title: "draft"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, core.NotePatch{Title: ptr("final")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	assert.Equal(t, []string{"tidy notes", "tidy notes", "tidy notes"}, repo.reasons)
}
