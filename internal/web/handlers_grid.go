package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/preview"
	"github.com/JonMunkholm/datacleanser/internal/web/templates"
)

const (
	sourcePreview = "preview"
	sourceCleaned = "cleaned"
)

// handleGridPartial serves one page of a data grid. The preview grid reads
// the profile snapshot; the cleaned grid reads the memoised clean result.
func (s *Server) handleGridPartial(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	source := chi.URLParam(r, "source")
	ctx := r.Context()

	var (
		table *preview.Table
		title string
	)
	switch source {
	case sourcePreview:
		title = "Data preview"
		p, ok := s.service.CachedProfile(ctx, id)
		if !ok {
			fetched, err := s.service.FetchProfile(ctx, s.backend(r), id)
			if err != nil {
				s.panelError(w, r, "grid-"+source, err)
				return
			}
			p = fetched
		}
		table = preview.FromRecords(p.Preview)

	case sourceCleaned:
		title = "Cleaned data"
		res, ok := s.service.CleanedData(ctx, id)
		if !ok {
			s.panelError(w, r, "grid-"+source, core.ErrProcessData)
			return
		}
		table = preview.FromRows(res.Data)

	default:
		http.NotFound(w, r)
		return
	}

	s.fragment(w, r, templates.Grid(templates.GridView{
		Title:     title,
		Source:    source,
		SessionID: id,
		Page:      table.View(preview.ParseQuery(r.URL.Query())),
	}))
}
