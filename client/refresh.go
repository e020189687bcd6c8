package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
	"github.com/bilguunDash/online-shopping-sub000/sessions"
)

// State is the coordinator's refresh state. Transitions are strictly
// StateIdle -> StateRefreshing -> StateIdle; the return to idle is
// unconditional, even when the refresh call fails or panics.
type State int

const (
	StateIdle State = iota
	StateRefreshing
)

// refreshFunc exchanges a refresh credential for a fresh session.
type refreshFunc func(ctx context.Context, refreshToken string) (sessions.Session, error)

// Coordinator serializes credential refresh: the first caller to hit an
// expired credential becomes the leader and invokes the refresh endpoint
// exactly once; callers arriving while that refresh is in flight are queued
// and released, in enqueue order, with the shared outcome. No caller is left
// queued after the coordinator settles.
type Coordinator struct {
	mu      sync.Mutex
	state   State
	waiters []chan error

	refresh      refreshFunc
	tokens       *sessions.TokenStore
	onInvalidate func()
	logger       zerolog.Logger
}

// NewCoordinator returns an idle Coordinator. onInvalidate runs after a
// failed refresh has cleared the session (the hard invalidation path).
func NewCoordinator(refresh refreshFunc, tokens *sessions.TokenStore, onInvalidate func()) *Coordinator {
	return &Coordinator{
		refresh:      refresh,
		tokens:       tokens,
		onInvalidate: onInvalidate,
		logger:       log.Logger,
	}
}

// State reports the current refresh state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Await blocks until a refresh cycle settles and returns its outcome. A nil
// return means a fresh credential is stored and the caller may reissue its
// request; a non-nil return means the session has been invalidated.
//
// staleToken is the credential the caller's failed request carried. When the
// stored credential already differs, a refresh has settled since that request
// was issued and the caller can retry immediately; without this check a 401
// response arriving just after a refresh would start a second one.
func (c *Coordinator) Await(ctx context.Context, staleToken string) error {
	c.mu.Lock()
	if sess, ok := c.tokens.Get(); ok && sess.AccessToken != "" && sess.AccessToken != staleToken {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateRefreshing {
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			// The waiter channel is buffered; settle will not block on
			// an abandoned caller.
			return ctx.Err()
		}
	}
	c.state = StateRefreshing
	c.mu.Unlock()

	var err error
	defer func() { c.settle(err) }()
	err = c.runRefresh(ctx)
	return err
}

// runRefresh performs the single refresh call for this cycle. A failure or an
// absent refresh credential clears the session and triggers the invalidation
// hook.
func (c *Coordinator) runRefresh(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
			c.invalidate(ctx)
		}
	}()

	sess, ok := c.tokens.Get()
	if !ok || sess.RefreshToken == "" {
		c.invalidate(ctx)
		return clienterrors.ErrNoRefreshToken
	}

	fresh, err := c.refresh(ctx, sess.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("credential refresh failed, invalidating session")
		c.invalidate(ctx)
		return clienterrors.Wrapf(err, "refreshing credential")
	}

	// Rotation may or may not issue a new refresh credential; keep the old
	// one when it does not.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = sess.RefreshToken
	}
	if err := c.tokens.Set(ctx, fresh); err != nil {
		c.invalidate(ctx)
		return clienterrors.Wrapf(err, "storing refreshed session")
	}
	return nil
}

func (c *Coordinator) invalidate(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("clearing session after failed refresh")
	}
	if c.onInvalidate != nil {
		c.onInvalidate()
	}
}

// settle transitions back to idle and releases every queued waiter with the
// cycle's outcome, in enqueue order.
func (c *Coordinator) settle(err error) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.state = StateIdle
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
}
