package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/datacleanser/internal/auth"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps remote", []string{"10.0.0.0/8"}, "203.0.113.5:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.5:1234"},
		{"trusted uses X-Real-IP", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted uses first forwarded", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"bare trusted address", []string{"127.0.0.1"}, "127.0.0.1:9", map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3:1234"},
		{"no trusted proxies", nil, "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.1.2.3:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Unix(1000, 0)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests rejected")
	}
	if rl.Allow("a") {
		t.Error("third request allowed")
	}
	if !rl.Allow("b") {
		t.Error("other IP rejected")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("a") {
		t.Error("request rejected after window reset")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 1, time.Minute)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}

	// Same IP from another port shares the bucket.
	req.RemoteAddr = "192.0.2.1:6000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "RATE001") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type fakeSessions map[string]*auth.Session

func (f fakeSessions) Current(_ context.Context, id string) *auth.Session { return f[id] }

func TestRequireSession(t *testing.T) {
	sessions := fakeSessions{"good": {ID: "good", UserID: "u1"}}
	var seen *auth.Session
	h := RequireSession(sessions, "dc_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
	}))

	tests := []struct {
		name       string
		path       string
		cookie     string
		htmx       bool
		wantStatus int
		wantHeader [2]string
	}{
		{"signed in", "/upload", "good", false, http.StatusOK, [2]string{}},
		{"page redirects", "/upload", "", false, http.StatusSeeOther, [2]string{"Location", "/"}},
		{"unknown cookie redirects", "/profile", "stale", false, http.StatusSeeOther, [2]string{"Location", "/"}},
		{"htmx gets HX-Redirect", "/partials/profile", "", true, http.StatusUnauthorized, [2]string{"HX-Redirect", "/"}},
		{"api gets json", "/api/upload", "", false, http.StatusUnauthorized, [2]string{"Content-Type", "application/json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "dc_session", Value: tt.cookie})
			}
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if k := tt.wantHeader[0]; k != "" && rec.Header().Get(k) != tt.wantHeader[1] {
				t.Errorf("%s = %q, want %q", k, rec.Header().Get(k), tt.wantHeader[1])
			}
			if tt.wantStatus == http.StatusOK && (seen == nil || seen.UserID != "u1") {
				t.Errorf("session not attached: %+v", seen)
			}
		})
	}
}

func TestLoadSession(t *testing.T) {
	sessions := fakeSessions{"good": {ID: "good", UserID: "u1"}}
	var ok bool
	h := LoadSession(sessions, "dc_session")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if ok {
		t.Error("session attached without cookie")
	}

	req.AddCookie(&http.Cookie{Name: "dc_session", Value: "good"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !ok {
		t.Error("session not attached")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req = req.WithContext(auth.NewContext(req.Context(), &auth.Session{UserID: "u9"}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"level":"WARN"`, `"status":404`, `"path":"/missing"`, `"user_id":"u9"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %s missing %s", out, want)
		}
	}
}
