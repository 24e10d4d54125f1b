package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tableName = "preview_cache"

const schema = `CREATE TABLE IF NOT EXISTS preview_cache (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres stores entries in a single upserted table.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgres connects, pings and creates the cache table if needed.
func NewPostgres(ctx context.Context, url string, ttl time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("cache: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cache: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cache: create table: %w", err)
	}
	return &Postgres{pool: pool, ttl: ttl}, nil
}

func selectQuery(key string, ttl time.Duration, now time.Time) (string, []any, error) {
	q := psql.Select("payload").From(tableName).Where(sq.Eq{"key": key})
	if ttl > 0 {
		q = q.Where(sq.Gt{"updated_at": now.Add(-ttl)})
	}
	return q.ToSql()
}

func upsertQuery(key string, payload []byte, now time.Time) (string, []any, error) {
	return psql.Insert(tableName).
		Columns("key", "payload", "updated_at").
		Values(key, payload, now).
		Suffix("ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := selectQuery(key, p.ttl, time.Now())
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = p.pool.QueryRow(ctx, query, args...).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: select %s: %w", key, err)
	}
	return payload, true, nil
}

// Set upserts in one statement, so concurrent writers never interleave.
func (p *Postgres) Set(ctx context.Context, key string, payload []byte) error {
	query, args, err := upsertQuery(key, payload, time.Now())
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("cache: upsert %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
