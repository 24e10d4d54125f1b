package web

import (
	"net/http"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/logging"
	"github.com/JonMunkholm/datacleanser/internal/preview"
	"github.com/JonMunkholm/datacleanser/internal/web/templates"
)

// handleProfilePage renders the cached snapshot right away when there is
// one; the authoritative profile replaces it once the partial loads.
func (s *Server) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		http.Redirect(w, r, "/upload", http.StatusSeeOther)
		return
	}

	var cached *templates.ProfileView
	if p, ok := s.service.CachedProfile(r.Context(), id); ok {
		v := profileView(id, p)
		v.Cached = true
		cached = &v
	}
	s.page(w, r, http.StatusOK, "Profile", templates.ProfilePage(id, cached))
}

// handleProfilePartial fetches the authoritative profile.
func (s *Server) handleProfilePartial(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	p, err := s.service.FetchProfile(r.Context(), s.backend(r), id)
	if err != nil {
		s.panelError(w, r, "profile", err)
		return
	}
	s.fragment(w, r, templates.ProfilePanel(profileView(id, p)))
}

func profileView(id string, p *api.ProfileResult) templates.ProfileView {
	return templates.ProfileView{
		SessionID: id,
		Rows:      p.Rows,
		Columns:   len(p.Columns),
		Cards:     core.StatCards(p.Profile),
		Preview: templates.GridView{
			Title:     "Data preview",
			Source:    sourcePreview,
			SessionID: id,
			Page:      preview.FromRecords(p.Preview).View(preview.Query{}),
		},
	}
}

// panelError replaces a panel with its error and a way back to upload.
func (s *Server) panelError(w http.ResponseWriter, r *http.Request, panel string, err error) {
	msg := core.MapError(err)
	s.logError(r, err, msg)
	s.fragment(w, r, templates.RetryPanel(panel, msg.Message, msg.Code))
}

func (s *Server) logError(r *http.Request, err error, msg core.UserMessage) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"error", err.Error(),
		"code", msg.Code,
	)
}
