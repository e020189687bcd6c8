package client_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bilguunDash/online-shopping-sub000/client"
	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
	"github.com/bilguunDash/online-shopping-sub000/kvstore"
	"github.com/bilguunDash/online-shopping-sub000/sessions"
)

func seededTokens(t *testing.T, access, refresh string) *sessions.TokenStore {
	t.Helper()
	ts, err := sessions.NewTokenStore(context.Background(), kvstore.NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, ts.Set(context.Background(), sessions.Session{AccessToken: access, RefreshToken: refresh}))
	return ts
}

func TestCoordinatorSingleFlight(t *testing.T) {
	ctx := context.Background()
	tokens := seededTokens(t, "old-token", "refresh-1")

	var calls int32
	coord := client.NewCoordinator(func(context.Context, string) (sessions.Session, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return sessions.Session{AccessToken: "new-token"}, nil
	}, tokens, nil)

	var wg sync.WaitGroup
	outcomes := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = coord.Await(ctx, "old-token")
		}(i)
	}
	wg.Wait()

	for _, err := range outcomes {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.Equal(t, client.StateIdle, coord.State())

	sess, ok := tokens.Get()
	require.True(t, ok)
	require.Equal(t, "new-token", sess.AccessToken)
	// Rotation did not issue a new refresh credential; the old one is kept.
	require.Equal(t, "refresh-1", sess.RefreshToken)
}

func TestCoordinatorFailureRejectsAllWaiters(t *testing.T) {
	ctx := context.Background()
	tokens := seededTokens(t, "old-token", "refresh-1")

	var invalidated int32
	coord := client.NewCoordinator(func(context.Context, string) (sessions.Session, error) {
		time.Sleep(20 * time.Millisecond)
		return sessions.Session{}, clienterrors.ErrServer
	}, tokens, func() {
		atomic.AddInt32(&invalidated, 1)
	})

	var wg sync.WaitGroup
	failures := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			failures[i] = coord.Await(ctx, "old-token")
		}(i)
	}
	wg.Wait()

	for _, err := range failures {
		require.Error(t, err)
	}
	require.Equal(t, client.StateIdle, coord.State())
	require.EqualValues(t, 1, atomic.LoadInt32(&invalidated))
	_, ok := tokens.Get()
	require.False(t, ok, "failed refresh must clear the session")
}

func TestCoordinatorNoRefreshToken(t *testing.T) {
	ctx := context.Background()
	tokens := seededTokens(t, "old-token", "")

	coord := client.NewCoordinator(func(context.Context, string) (sessions.Session, error) {
		t.Fatal("refresh endpoint must not be invoked without a refresh credential")
		return sessions.Session{}, nil
	}, tokens, nil)

	err := coord.Await(ctx, "old-token")
	require.ErrorIs(t, err, clienterrors.ErrNoRefreshToken)
	require.Equal(t, client.StateIdle, coord.State())
}

func TestCoordinatorStaleCheckSkipsRefresh(t *testing.T) {
	ctx := context.Background()
	tokens := seededTokens(t, "already-fresh", "refresh-1")

	coord := client.NewCoordinator(func(context.Context, string) (sessions.Session, error) {
		t.Fatal("refresh must not run when the stored credential already changed")
		return sessions.Session{}, nil
	}, tokens, nil)

	// The caller failed with a credential that has since been replaced.
	require.NoError(t, coord.Await(ctx, "old-token"))
}

func TestCoordinatorReturnsToIdleAfterPanic(t *testing.T) {
	ctx := context.Background()
	tokens := seededTokens(t, "old-token", "refresh-1")

	coord := client.NewCoordinator(func(context.Context, string) (sessions.Session, error) {
		panic("refresh exploded")
	}, tokens, nil)

	err := coord.Await(ctx, "old-token")
	require.Error(t, err)
	require.Equal(t, client.StateIdle, coord.State())
}
