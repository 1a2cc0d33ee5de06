package server

import (
	"bytes"
	"errors"
	"net/http"
	"os"
)

// renderPage renders the configured Markdown file. The files are read on
// every request.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.page.RenderFiles(&buf, s.files, s.now()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to render page", "file", s.files.Markdown, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
