// Package cache is the best-effort side cache of per-session payloads.
//
// Entries are opaque JSON documents keyed by string. Every backend replaces a
// key's value atomically, so readers see either the old or the new payload
// and the last write wins.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is a key/value cache.
type Store interface {
	// Get returns the payload for key; ok is false on a miss.
	Get(ctx context.Context, key string) (payload []byte, ok bool, err error)
	// Set replaces the payload for key.
	Set(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Keys are scoped to the signed-in user. A user never reads an entry written
// for another user, even for the same upload session.

// PreviewKey is the key of a user's profile snapshot of an upload session.
func PreviewKey(userID, sessionID string) string { return userID + "/preview_" + sessionID }

// ResultKey is the key of a user's last cleaning result of an upload session.
func ResultKey(userID, sessionID string) string { return userID + "/result_" + sessionID }

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory, redis or postgres
	RedisURL    string
	DatabaseURL string
	TTL         time.Duration // 0 keeps entries until overwritten
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return NewMemory(opts.TTL), nil
	case "redis":
		return NewRedis(ctx, opts.RedisURL, opts.TTL)
	case "postgres":
		return NewPostgres(ctx, opts.DatabaseURL, opts.TTL)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}
