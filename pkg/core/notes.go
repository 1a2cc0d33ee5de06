package core

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

// NoteService handles the business logic of the notes collection.
type NoteService struct {
	repo Repository[Note]
	opts *serviceOptions
}

// NewNoteService creates a NoteService on top of repo.
func NewNoteService(repo Repository[Note], opts ...ServiceOption) *NoteService {
	return &NoteService{repo: repo, opts: buildServiceOptions(opts)}
}

// List returns every note, newest first.
func (s *NoteService) List(ctx context.Context) (notes []Note, err error) {
	defer s.track("list", time.Now(), &err)

	notes, err = s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.opts.metrics.setRecords(NotesCollection, len(notes))
	return notes, nil
}

// Get retrieves a note by id.
func (s *NoteService) Get(ctx context.Context, id string) (note Note, err error) {
	defer s.track("get", time.Now(), &err)

	if err := requireID(id); err != nil {
		return Note{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create adds a note at the top of the collection.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (note Note, err error) {
	defer s.track("create", time.Now(), &err)

	if err := in.Validate(); err != nil {
		return Note{}, err
	}

	content := ""
	if in.Content != nil {
		content = *in.Content
	}
	tags := []string{}
	if in.Tags != nil {
		tags = slices.Clone(in.Tags)
	}

	note, err = insertWithFreshID(ctx, s.opts, s.repo, "note", Prepend, func(id string) Note {
		now := s.opts.clock.Now()
		return Note{
			ID:        id,
			Title:     in.Title,
			Content:   content,
			Tags:      tags,
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
	if err != nil {
		return Note{}, err
	}

	s.opts.publish(NotesCollection, EventCreate, note.ID)
	return note, nil
}

// Update applies a merge-patch to the title, content and tags.
func (s *NoteService) Update(ctx context.Context, id string, patch NotePatch) (note Note, err error) {
	defer s.track("update", time.Now(), &err)

	if err := requireID(id); err != nil {
		return Note{}, err
	}
	if err := patch.Validate(); err != nil {
		return Note{}, err
	}

	ctx = defaultReason(ctx, fmt.Sprintf("update note %s", id))
	note, err = s.repo.Modify(ctx, id, func(n *Note) error {
		if patch.Title != nil {
			n.Title = *patch.Title
		}
		if patch.Content != nil {
			n.Content = *patch.Content
		}
		if patch.Tags != nil {
			n.Tags = slices.Clone(*patch.Tags)
			if n.Tags == nil {
				n.Tags = []string{}
			}
		}
		n.UpdatedAt = later(s.opts.clock, n.UpdatedAt)
		return nil
	})
	if err != nil {
		return Note{}, err
	}

	s.opts.publish(NotesCollection, EventModify, note.ID)
	return note, nil
}

// Delete removes a note. Deleting an unknown id succeeds.
func (s *NoteService) Delete(ctx context.Context, id string) (err error) {
	defer s.track("delete", time.Now(), &err)

	if err := requireID(id); err != nil {
		return err
	}

	ctx = defaultReason(ctx, fmt.Sprintf("delete note %s", id))
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if existed {
		s.opts.publish(NotesCollection, EventDelete, id)
	}
	return nil
}

// Tags returns the distinct tags of all notes, sorted.
func (s *NoteService) Tags(ctx context.Context) ([]string, error) {
	notes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, n := range notes {
		for _, tag := range n.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ListByTag returns the notes carrying tag, in stored order.
func (s *NoteService) ListByTag(ctx context.Context, tag string) ([]Note, error) {
	notes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := []Note{}
	for _, n := range notes {
		if slices.Contains(n.Tags, tag) {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// Search ranks notes by a fuzzy match of query against title, tags and
// content. An empty query returns every note in stored order.
func (s *NoteService) Search(ctx context.Context, query string) ([]Note, error) {
	notes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return notes, nil
	}

	matches := fuzzy.FindFrom(query, noteHaystack(notes))
	found := make([]Note, 0, len(matches))
	for _, m := range matches {
		found = append(found, notes[m.Index])
	}
	return found, nil
}

func (s *NoteService) track(op string, start time.Time, err *error) {
	s.opts.metrics.observe(NotesCollection, op, start, *err)
}

// noteHaystack adapts notes to fuzzy.Source.
type noteHaystack []Note

func (h noteHaystack) String(i int) string {
	n := h[i]
	return n.Title + " " + strings.Join(n.Tags, " ") + " " + n.Content
}

func (h noteHaystack) Len() int { return len(h) }
