// Package kvstore provides the durable key-value storage the session and
// collection layers persist through. Implementations must make a Set durable
// before returning, so a publish that follows a Set is always observable by a
// subscriber that re-reads the store.
//
// Across independent processes sharing the same backing storage the contract
// is last-writer-wins: there is no cross-process locking, and readers observe
// foreign writes only on their own next read.
package kvstore

import (
	"context"

	"github.com/bilguunDash/online-shopping-sub000/internal/errors"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.ErrKeyNotFound

// Store is a durable string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
