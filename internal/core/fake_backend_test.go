package core

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/auth"
)

// ctxFor returns a context signed in as userID.
func ctxFor(userID string) context.Context {
	return auth.NewContext(context.Background(), &auth.Session{ID: "browser-" + userID, UserID: userID})
}

func userCtx() context.Context { return ctxFor("user-1") }

// fakeBackend records calls and serves canned replies.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	upload   func(f api.File, progress func(int)) (*api.UploadResult, error)
	profile  func() (*api.ProfileResult, error)
	clean    func(opts api.CleanOptions) (*api.CleanResult, error)
	audit    func() ([]api.AuditLog, error)
	download func() (io.ReadCloser, error)
	features func() (*api.FeatureSuggestions, error)
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Upload(_ context.Context, file api.File, progress func(int)) (*api.UploadResult, error) {
	f.record("upload")
	return f.upload(file, progress)
}

func (f *fakeBackend) GetProfile(context.Context, string) (*api.ProfileResult, error) {
	f.record("profile")
	return f.profile()
}

func (f *fakeBackend) CleanData(_ context.Context, _ string, opts api.CleanOptions) (*api.CleanResult, error) {
	f.record("clean")
	return f.clean(opts)
}

func (f *fakeBackend) GetAudit(context.Context, string) ([]api.AuditLog, error) {
	f.record("audit")
	return f.audit()
}

func (f *fakeBackend) DownloadFile(context.Context, string) (io.ReadCloser, error) {
	f.record("download")
	return f.download()
}

func (f *fakeBackend) GetFeatures(context.Context, string) (*api.FeatureSuggestions, error) {
	f.record("features")
	return f.features()
}

func csvFile(name, content string) UploadFile {
	return UploadFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// trackingBody counts Close calls.
type trackingBody struct {
	io.Reader
	mu     sync.Mutex
	closed int
}

func (b *trackingBody) Close() error {
	b.mu.Lock()
	b.closed++
	b.mu.Unlock()
	return nil
}

func (b *trackingBody) Closed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
