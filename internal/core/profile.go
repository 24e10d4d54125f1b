package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/logging"
)

// ErrProfileLoad is returned when the authoritative profile cannot be
// fetched.
var ErrProfileLoad = errors.New("failed to load profile data")

// FetchProfile loads the authoritative profile and overwrites the cached
// snapshot with it.
func (s *Service) FetchProfile(ctx context.Context, b Backend, sessionID string) (*api.ProfileResult, error) {
	p, err := b.GetProfile(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileLoad, err)
	}
	if !p.Success {
		return nil, ErrProfileLoad
	}
	if p.Profile == nil {
		p.Profile = []api.ColumnStat{}
	}
	s.saveSnapshot(ctx, sessionID, p)
	return p, nil
}

// LoadProfile renders the cached snapshot if there is one, then the
// authoritative profile or the load error. Renders stop once m is
// unmounted. The cached render, when present, always comes first.
func (s *Service) LoadProfile(ctx context.Context, b Backend, sessionID string, m *Mount, render func(ProfileState)) {
	if cached, ok := s.CachedProfile(ctx, sessionID); ok {
		m.run(func() { render(ProfileState{Profile: cached, Source: SourceCache}) })
	}

	p, err := s.FetchProfile(ctx, b, sessionID)
	if err != nil {
		logging.WithFields(ctx, "session_id", sessionID).Warn("profile fetch failed", "error", err)
	}
	if !m.Mounted() {
		return
	}

	state := ProfileState{Profile: p, Source: SourceServer, Err: err}
	if err != nil {
		state = ProfileState{Err: err}
	}
	m.run(func() { render(state) })
}
