package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/preview"
	"github.com/JonMunkholm/datacleanser/internal/web/templates"
)

// handleResultPage renders the result page shell. Cleaning runs when its
// panel loads.
func (s *Server) handleResultPage(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		http.Redirect(w, r, "/upload", http.StatusSeeOther)
		return
	}
	s.page(w, r, http.StatusOK, "Results", templates.ResultPage(id))
}

// handleResultPartial runs the cleaning pipeline and loads the audit trail.
func (s *Server) handleResultPartial(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	out, err := s.service.RunCleaning(r.Context(), s.backend(r), id)
	if err != nil {
		s.panelError(w, r, "result", err)
		return
	}

	s.fragment(w, r, templates.ResultPanel(templates.ResultView{
		SessionID: id,
		Summary:   out.Clean.Summary,
		Logs:      out.Logs,
		Cleaned: templates.GridView{
			Title:     "Cleaned data",
			Source:    sourceCleaned,
			SessionID: id,
			Page:      preview.FromRows(out.Clean.Data).View(preview.Query{}),
		},
	}))
}

// handleFeaturesPartial loads feature suggestions. A failure only affects
// this panel.
func (s *Server) handleFeaturesPartial(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.service.Features(r.Context(), s.backend(r), sessionID(r))
	if err != nil {
		msg := core.MapError(err)
		s.logError(r, err, msg)
		s.fragment(w, r, templates.FeaturesError(msg.Message, msg.Code))
		return
	}
	s.fragment(w, r, templates.FeaturesPanel(suggestions))
}

// handleDownload streams the cleaned file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		s.respondError(w, r, core.ErrDownload, http.StatusBadRequest)
		return
	}

	started := false
	err := s.service.Download(r.Context(), s.backend(r), id, core.SaverFunc(func(name string, body io.Reader) error {
		started = true
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		_, err := io.Copy(w, body)
		return err
	}))
	if err == nil {
		return
	}
	if started {
		// Headers are gone; the client sees a truncated file.
		s.logError(r, err, core.MapError(err))
		return
	}

	status := http.StatusBadGateway
	if errors.Is(err, api.ErrUnauthenticated) {
		status = http.StatusUnauthorized
	}
	s.respondError(w, r, err, status)
}
