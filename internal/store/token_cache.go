package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tokenCacheRepo implements TokenCacheRepository. Concurrent writers for the
// same key race read-then-write at the caller level; last write wins, which
// the self-describing cache format tolerates.
type tokenCacheRepo struct {
	pool *pgxpool.Pool
}

func (r *tokenCacheRepo) Get(ctx context.Context, key string) (string, error) {
	defer observeDB(ctx, "db.token_cache.get")()
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM third_party_cache WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *tokenCacheRepo) Put(ctx context.Context, key, value string) error {
	defer observeDB(ctx, "db.token_cache.put")()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO third_party_cache (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	return err
}
