package sessions

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/bilguunDash/online-shopping-sub000/kvstore"
)

// Storage keys owned by the session layer. Stable contract: other processes
// sharing the backing store read the same keys.
const (
	accessTokenKey   = "token"
	refreshTokenKey  = "refreshToken"
	firstNameKey     = "firstname"
	lastNameKey      = "lastname"
	roleKey          = "role"
	authUpdatedAtKey = "authUpdatedAt"
)

// NowFunc returns the current time. It can be overridden in tests.
var NowFunc = time.Now

// TokenStore is the process-wide holder of the current Session. Every Set and
// Clear is durable before it returns, so a reload (or a sibling process on its
// next read) observes the latest credential.
type TokenStore struct {
	mu      sync.RWMutex
	storage kvstore.Store
	current *Session
}

// NewTokenStore loads any persisted session from storage. A persisted access
// token whose claims no longer decode is kept; decode failures are handled at
// request time by the interceptor.
func NewTokenStore(ctx context.Context, storage kvstore.Store) (*TokenStore, error) {
	ts := &TokenStore{storage: storage}

	access, err := storage.Get(ctx, accessTokenKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return ts, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading persisted session")
	}

	s := &Session{AccessToken: access}
	if refresh, err := storage.Get(ctx, refreshTokenKey); err == nil {
		s.RefreshToken = refresh
	}
	claims := &Claims{}
	if v, err := storage.Get(ctx, firstNameKey); err == nil {
		claims.FirstName = v
	}
	if v, err := storage.Get(ctx, lastNameKey); err == nil {
		claims.LastName = v
	}
	if v, err := storage.Get(ctx, roleKey); err == nil {
		claims.Role = v
	}
	if *claims != (Claims{}) {
		s.Claims = claims
	}
	ts.current = s
	return ts, nil
}

// Get returns a copy of the current session, or false when no session exists.
func (ts *TokenStore) Get() (Session, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if ts.current == nil {
		return Session{}, false
	}
	copied := *ts.current
	if ts.current.Claims != nil {
		claims := *ts.current.Claims
		copied.Claims = &claims
	}
	return copied, true
}

// Set replaces the current session. The replacement is atomic from the point
// of view of Get: callers never observe a partially written session. All
// derived keys, plus the auth-updated-at timestamp other components watch,
// are durable before Set returns.
func (ts *TokenStore) Set(ctx context.Context, s Session) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.storage.Set(ctx, accessTokenKey, s.AccessToken); err != nil {
		return errors.Wrap(err, "persisting access token")
	}
	if s.RefreshToken != "" {
		if err := ts.storage.Set(ctx, refreshTokenKey, s.RefreshToken); err != nil {
			return errors.Wrap(err, "persisting refresh token")
		}
	}
	if s.Claims != nil {
		if err := ts.persistClaims(ctx, s.Claims); err != nil {
			return err
		}
	}
	if err := ts.touchLocked(ctx); err != nil {
		return err
	}

	copied := s
	if s.Claims != nil {
		claims := *s.Claims
		copied.Claims = &claims
	}
	ts.current = &copied
	return nil
}

// SetClaims refreshes only the cached claims of the current session, leaving
// the credential pair untouched. Used by the interceptor's opportunistic
// decode on each outbound call. A no-op when no session exists.
func (ts *TokenStore) SetClaims(ctx context.Context, claims Claims) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.current == nil {
		return nil
	}
	if err := ts.persistClaims(ctx, &claims); err != nil {
		return err
	}
	ts.current.Claims = &claims
	return nil
}

// Clear destroys the session and all derived claims.
func (ts *TokenStore) Clear(ctx context.Context) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, key := range []string{accessTokenKey, refreshTokenKey, firstNameKey, lastNameKey, roleKey} {
		if err := ts.storage.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "clearing %q", key)
		}
	}
	if err := ts.touchLocked(ctx); err != nil {
		return err
	}
	ts.current = nil
	return nil
}

func (ts *TokenStore) persistClaims(ctx context.Context, claims *Claims) error {
	if err := ts.storage.Set(ctx, firstNameKey, claims.FirstName); err != nil {
		return errors.Wrap(err, "persisting first name")
	}
	if err := ts.storage.Set(ctx, lastNameKey, claims.LastName); err != nil {
		return errors.Wrap(err, "persisting last name")
	}
	if err := ts.storage.Set(ctx, roleKey, claims.Role); err != nil {
		return errors.Wrap(err, "persisting role")
	}
	return nil
}

func (ts *TokenStore) touchLocked(ctx context.Context) error {
	stamp := strconv.FormatInt(NowFunc().UnixMilli(), 10)
	return errors.Wrap(ts.storage.Set(ctx, authUpdatedAtKey, stamp), "persisting auth timestamp")
}
