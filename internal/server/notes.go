package server

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/tillage/pkg/core"
)

// listNotes serves every note, narrowed by the optional q (fuzzy search)
// and tag query parameters.
func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")

	var (
		notes []core.Note
		err   error
	)
	switch {
	case query != "":
		notes, err = s.app.Notes.Search(r.Context(), query)
	case tag != "":
		notes, err = s.app.Notes.ListByTag(r.Context(), tag)
	default:
		notes, err = s.app.Notes.List(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if query != "" && tag != "" {
		notes = slices.DeleteFunc(notes, func(n core.Note) bool {
			return !slices.Contains(n.Tags, tag)
		})
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) noteTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.app.Notes.Tags(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.app.Notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var in core.NoteInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.app.Notes.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	var patch core.NotePatch
	if err := decode(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	note, err := s.app.Notes.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Notes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}
