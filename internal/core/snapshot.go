package core

import (
	"context"
	"encoding/json"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/auth"
	"github.com/JonMunkholm/datacleanser/internal/cache"
	"github.com/JonMunkholm/datacleanser/internal/logging"
)

// The cache is a side channel: failures are logged and never surface to
// the flows. Entries belong to the user signed in on ctx; without a
// signed-in user nothing is read or written.

// owner is the user whose cache entries ctx may touch.
func owner(ctx context.Context) (string, bool) {
	sess, ok := auth.FromContext(ctx)
	if !ok || sess.UserID == "" {
		return "", false
	}
	return sess.UserID, true
}

func (s *Service) saveSnapshot(ctx context.Context, sessionID string, p *api.ProfileResult) {
	s.put(ctx, cache.PreviewKey, sessionID, p)
}

// CachedProfile returns the signed-in user's last stored profile payload
// for a session.
func (s *Service) CachedProfile(ctx context.Context, sessionID string) (*api.ProfileResult, bool) {
	var p api.ProfileResult
	if !s.get(ctx, cache.PreviewKey, sessionID, &p) {
		return nil, false
	}
	return &p, true
}

// CleanedData returns the signed-in user's memoised clean result of a session.
func (s *Service) CleanedData(ctx context.Context, sessionID string) (*api.CleanResult, bool) {
	var r api.CleanResult
	if !s.get(ctx, cache.ResultKey, sessionID, &r) {
		return nil, false
	}
	return &r, true
}

// keyFunc builds a cache key from a user id and an upload session id.
type keyFunc func(userID, sessionID string) string

func (s *Service) put(ctx context.Context, keyOf keyFunc, sessionID string, v any) {
	if s.store == nil {
		return
	}
	userID, ok := owner(ctx)
	if !ok {
		return
	}
	key := keyOf(userID, sessionID)
	payload, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(ctx).Warn("encode cache entry", "key", key, "error", err)
		return
	}
	if err := s.store.Set(ctx, key, payload); err != nil {
		logging.FromContext(ctx).Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *Service) get(ctx context.Context, keyOf keyFunc, sessionID string, v any) bool {
	if s.store == nil {
		return false
	}
	userID, ok := owner(ctx)
	if !ok {
		return false
	}
	key := keyOf(userID, sessionID)
	payload, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logging.FromContext(ctx).Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		logging.FromContext(ctx).Warn("discarding unreadable cache entry", "key", key, "error", err)
		return false
	}
	return true
}
