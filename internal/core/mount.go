package core

import "sync"

// Mount tracks whether a view is still displayed. Updates delivered after
// Unmount are dropped. A nil *Mount is always mounted.
type Mount struct {
	mu   sync.Mutex
	gone bool
}

// NewMount returns a mounted view guard.
func NewMount() *Mount { return &Mount{} }

// Unmount marks the view as gone. Later updates become no-ops.
func (m *Mount) Unmount() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.gone = true
	m.mu.Unlock()
}

// Mounted reports whether the view is still displayed.
func (m *Mount) Mounted() bool {
	if m == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.gone
}

// run calls fn only while mounted. Unmount waits for a running fn.
func (m *Mount) run(fn func()) bool {
	if m == nil {
		fn()
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gone {
		return false
	}
	fn()
	return true
}
