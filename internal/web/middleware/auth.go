package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/datacleanser/internal/auth"
)

// SessionResolver looks up the signed-in session behind a cookie value.
type SessionResolver interface {
	Current(ctx context.Context, id string) *auth.Session
}

// LoadSession attaches the caller's session, if any, to the request context.
// Requests without a session pass through unchanged.
func LoadSession(sessions SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s := resolve(r, sessions, cookieName); s != nil {
				r = r.WithContext(auth.NewContext(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests without a signed-in session. Pages are
// redirected to the entry page, htmx requests get an HX-Redirect and API
// calls a JSON 401.
func RequireSession(sessions SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := auth.FromContext(r.Context()); ok && s != nil {
				next.ServeHTTP(w, r)
				return
			}
			s := resolve(r, sessions, cookieName)
			if s != nil {
				next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), s)))
				return
			}

			slog.Debug("auth: no session",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)

			switch {
			case r.Header.Get("HX-Request") == "true":
				w.Header().Set("HX-Redirect", "/")
				w.WriteHeader(http.StatusUnauthorized)
			case strings.HasPrefix(r.URL.Path, "/api/"):
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"You are not signed in","message":"You are not signed in","action":"Sign in and try again","code":"AUTH001"}`))
			default:
				http.Redirect(w, r, "/", http.StatusSeeOther)
			}
		})
	}
}

func resolve(r *http.Request, sessions SessionResolver, cookieName string) *auth.Session {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return sessions.Current(r.Context(), c.Value)
}
