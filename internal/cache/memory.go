package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory keeps entries in process.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-process store. A zero ttl never expires entries.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		return &Memory{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &Memory{c: gocache.New(ttl, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	x, found := m.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return x.([]byte), true, nil
}

func (m *Memory) Set(_ context.Context, key string, payload []byte) error {
	m.c.Set(key, append([]byte(nil), payload...), gocache.DefaultExpiration)
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
