// Package web provides the HTTP server and handlers for the data-cleaning UI.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/auth"
	"github.com/JonMunkholm/datacleanser/internal/config"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/logging"
	"github.com/JonMunkholm/datacleanser/internal/web/middleware"
)

// Server is the HTTP server for the data-cleaning application.
type Server struct {
	cfg      *config.Config
	service  *core.Service
	sessions *auth.Provider
	api      *api.Client
	validate *validator.Validate

	router *chi.Mux
	server *http.Server

	// stops the rate limiter sweepers
	stop context.CancelFunc
}

// NewServer wires the routes. client is the unauthenticated backend client;
// handlers bind it to the caller's session.
func NewServer(cfg *config.Config, service *core.Service, sessions *auth.Provider, client *api.Client) *Server {
	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		service:  service,
		sessions: sessions,
		api:      client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		router:   chi.NewRouter(),
		stop:     stop,
	}
	s.setupMiddleware(ctx)
	s.setupRoutes(ctx)
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.LoadSession(s.sessions, s.cfg.Session.CookieName))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(ctx, s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)

	// Entry and identity actions
	s.router.Get("/", s.handleEntry)
	s.router.Post("/login", s.handleLogin)
	s.router.Post("/signup", s.handleSignup)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.sessions, s.cfg.Session.CookieName))

		// Pages
		r.Get("/upload", s.handleUploadPage)
		r.Get("/profile", s.handleProfilePage)
		r.Get("/result", s.handleResultPage)
		r.Get("/download", s.handleDownload)

		// htmx fragments
		r.Route("/partials", func(r chi.Router) {
			r.Get("/profile", s.handleProfilePartial)
			r.Get("/result", s.handleResultPartial)
			r.Get("/features", s.handleFeaturesPartial)
			r.Get("/grid/{source}", s.handleGridPartial)
		})

		// API routes
		r.Route("/api", func(r chi.Router) {
			upload := r.With()
			if s.cfg.Rate.Enabled {
				limiter := middleware.NewRateLimiter(ctx, s.cfg.Rate.UploadLimit, time.Minute)
				upload = r.With(limiter.Middleware)
			}
			upload.Post("/upload", s.handleUpload)
			r.Get("/upload/{uploadID}/progress", s.handleUploadProgress)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// Inline scripts drive the upload widget; htmx comes from unpkg.
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
