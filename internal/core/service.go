package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/datacleanser/internal/cache"
)

// Options configures a Service.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	// Retention is how long a finished upload can still be queried.
	Retention time.Duration
}

// Service runs the upload, profile and result flows. It holds no user
// state; each call receives a Backend authenticated as the caller.
type Service struct {
	store     cache.Store
	limiter   *UploadLimiter
	maxSize   int64
	retention time.Duration

	mu      sync.RWMutex
	uploads map[string]*activeUpload
}

type activeUpload struct {
	ID    string
	Owner string // user who started the upload
	Done  chan struct{}

	mu        sync.Mutex
	progress  UploadProgress
	listeners []chan UploadProgress
}

// NewService creates a Service backed by store.
func NewService(store cache.Store, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 10 << 20
	}
	if opts.Retention <= 0 {
		opts.Retention = 5 * time.Minute
	}
	return &Service{
		store:     store,
		limiter:   NewUploadLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		maxSize:   opts.MaxFileSize,
		retention: opts.Retention,
		uploads:   make(map[string]*activeUpload),
	}
}

// MaxFileSize is the largest accepted upload.
func (s *Service) MaxFileSize() int64 { return s.maxSize }

// Limiter exposes the upload limiter for health output and shutdown.
func (s *Service) Limiter() *UploadLimiter { return s.limiter }

// upload looks up a job started by the user signed in on ctx. Jobs of other
// users are reported as not found.
func (s *Service) upload(ctx context.Context, id string) (*activeUpload, error) {
	s.mu.RLock()
	up, ok := s.uploads[id]
	s.mu.RUnlock()
	if userID, _ := owner(ctx); !ok || up.Owner != userID {
		return nil, fmt.Errorf("upload not found: %s", id)
	}
	return up, nil
}

// SubscribeProgress returns a channel of progress snapshots for an upload.
// The current state is sent first; the channel is closed once the upload
// has finished. Read the final state with UploadStatus after the close.
func (s *Service) SubscribeProgress(ctx context.Context, uploadID string) (<-chan UploadProgress, error) {
	up, err := s.upload(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	ch := make(chan UploadProgress, 16)

	up.mu.Lock()
	defer up.mu.Unlock()
	ch <- up.progress
	if up.progress.Phase.Done() {
		close(ch)
		return ch, nil
	}
	up.listeners = append(up.listeners, ch)
	return ch, nil
}

// UploadStatus returns the current snapshot without blocking.
func (s *Service) UploadStatus(ctx context.Context, uploadID string) (UploadProgress, error) {
	up, err := s.upload(ctx, uploadID)
	if err != nil {
		return UploadProgress{}, err
	}
	up.mu.Lock()
	defer up.mu.Unlock()
	return up.progress, nil
}

// WaitUpload blocks until the upload finishes or ctx ends.
func (s *Service) WaitUpload(ctx context.Context, uploadID string) (UploadProgress, error) {
	up, err := s.upload(ctx, uploadID)
	if err != nil {
		return UploadProgress{}, err
	}
	select {
	case <-up.Done:
	case <-ctx.Done():
		return UploadProgress{}, ctx.Err()
	}
	return s.UploadStatus(ctx, uploadID)
}

// setPercent records upload progress and fans it out.
func (up *activeUpload) setPercent(p int) {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.progress.Percent = p
	up.notify()
}

// finish records the terminal state and closes every listener.
func (up *activeUpload) finish(p UploadProgress) {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.progress = p
	up.notify()
	for _, ch := range up.listeners {
		close(ch)
	}
	up.listeners = nil
}

// notify sends the snapshot to each listener, skipping slow ones.
// Callers hold up.mu.
func (up *activeUpload) notify() {
	for _, ch := range up.listeners {
		select {
		case ch <- up.progress:
		default:
		}
	}
}

// forget drops a finished upload after the retention period.
func (s *Service) forget(uploadID string) {
	time.AfterFunc(s.retention, func() {
		s.mu.Lock()
		delete(s.uploads, uploadID)
		s.mu.Unlock()
	})
}

// Shutdown waits for running uploads to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
