package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datacleanser/internal/auth"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/logging"
	"github.com/JonMunkholm/datacleanser/internal/web/templates"
)

// backend returns the API client bound to the caller's session. Without a
// session every call fails with api.ErrUnauthenticated before sending.
func (s *Server) backend(r *http.Request) core.Backend {
	if sess, ok := auth.FromContext(r.Context()); ok && sess != nil {
		return s.api.WithTokens(sess)
	}
	return s.api
}

// page renders body inside the site layout.
func (s *Server) page(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	var email string
	if sess, ok := auth.FromContext(r.Context()); ok && sess != nil {
		email = sess.Email
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout(title, email, body).Render(r.Context(), w); err != nil {
		s.logRenderError(r, err)
	}
}

// fragment renders an htmx partial. Failures inside a panel are rendered
// with 200 so htmx swaps them in.
func (s *Server) fragment(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		s.logRenderError(r, err)
	}
}

func (s *Server) logRenderError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
}

// sessionID reads the dataset session id from the query string.
func sessionID(r *http.Request) string {
	return r.URL.Query().Get("session_id")
}

// handleHealth reports liveness and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"uploads": s.service.Limiter().Status(),
	})
}
