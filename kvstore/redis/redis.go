// Package redis provides a Redis-backed kvstore.Store.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bilguunDash/online-shopping-sub000/kvstore"
)

var _ kvstore.Store = (*Store)(nil)

// Store persists keys in Redis under a common prefix. Writes from other
// processes sharing the prefix are last-writer-wins; the client makes no
// cross-process ordering claims.
type Store struct {
	rc     *goredis.Client
	prefix string
}

// New returns a Store using the provided Redis client. Keys are stored with
// the provided prefix.
func New(rc *goredis.Client, prefix string) *Store {
	return &Store{rc: rc, prefix: prefix}
}

func (rs *Store) storageKey(key string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, key)
}

func (rs *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := rs.rc.Get(ctx, rs.storageKey(key)).Result()
	if err == goredis.Nil {
		return "", kvstore.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (rs *Store) Set(ctx context.Context, key, value string) error {
	if err := rs.rc.Set(ctx, rs.storageKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (rs *Store) Delete(ctx context.Context, key string) error {
	if err := rs.rc.Del(ctx, rs.storageKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
