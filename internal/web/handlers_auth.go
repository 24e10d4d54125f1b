package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/datacleanser/internal/auth"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/logging"
	"github.com/JonMunkholm/datacleanser/internal/web/templates"
)

// credentials is the sign-in / sign-up form.
type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

const invalidForm = "Enter a valid email and a password of at least 6 characters"

// handleEntry shows the sign-in page, or sends signed-in users on to upload.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.FromContext(r.Context()); ok && sess != nil {
		http.Redirect(w, r, "/upload", http.StatusSeeOther)
		return
	}
	s.page(w, r, http.StatusOK, "Sign in", templates.Entry(templates.EntryForm{}))
}

func (s *Server) readCredentials(r *http.Request) (credentials, error) {
	if err := r.ParseForm(); err != nil {
		return credentials{}, err
	}
	c := credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	return c, s.validate.Struct(c)
}

// handleLogin signs in with email and password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := s.readCredentials(r)
	if err != nil {
		s.page(w, r, http.StatusBadRequest, "Sign in", templates.Entry(templates.EntryForm{Email: c.Email, Error: invalidForm}))
		return
	}

	sess, err := s.sessions.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		s.authFailed(w, r, c.Email, err)
		return
	}
	s.setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

// handleSignup creates an account. When the identity service requires email
// confirmation the user is asked to confirm and then sign in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	c, err := s.readCredentials(r)
	if err != nil {
		s.page(w, r, http.StatusBadRequest, "Sign in", templates.Entry(templates.EntryForm{Email: c.Email, Error: invalidForm}))
		return
	}

	sess, err := s.sessions.SignUp(r.Context(), c.Email, c.Password)
	if errors.Is(err, auth.ErrConfirmationRequired) {
		msg := core.MapError(err)
		s.page(w, r, http.StatusOK, "Sign in", templates.Entry(templates.EntryForm{Email: c.Email, Notice: msg.Message}))
		return
	}
	if err != nil {
		s.authFailed(w, r, c.Email, err)
		return
	}
	s.setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	msg := core.MapError(err)
	status := http.StatusUnauthorized
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		status = http.StatusBadGateway
		logging.FromContext(r.Context()).Error("identity request failed", "error", err, "code", msg.Code)
	}
	s.page(w, r, status, "Sign in", templates.Entry(templates.EntryForm{Email: email, Error: msg.Message}))
}

// handleLogout ends the session and returns to the entry page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil && c.Value != "" {
		if err := s.sessions.SignOut(r.Context(), c.Value); err != nil {
			logging.FromContext(r.Context()).Warn("sign out failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
