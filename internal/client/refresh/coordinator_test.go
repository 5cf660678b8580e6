package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

type fakeStore struct {
	mu      sync.Mutex
	access  string
	refresh string
	setErr  error
	clears  int
}

func (f *fakeStore) AccessToken(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeStore) RefreshToken(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeStore) SetTokens(_ context.Context, t models.AuthTokens) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.access, f.refresh = t.AccessToken, t.RefreshToken
	return nil
}

func (f *fakeStore) ClearTokens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = "", ""
	f.clears++
	return nil
}

// gatedRefresher blocks every refresh until release is closed.
type gatedRefresher struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func newGated() *gatedRefresher {
	return &gatedRefresher{release: make(chan struct{})}
}

func (g *gatedRefresher) fn(ctx context.Context, refreshToken string) (models.AuthTokens, error) {
	n := g.calls.Add(1)
	<-g.release
	if g.err != nil {
		return models.AuthTokens{}, g.err
	}
	return models.AuthTokens{
		AccessToken:  fmt.Sprintf("access-%d", n+1),
		RefreshToken: fmt.Sprintf("refresh-%d", n+1),
	}, nil
}

// recorder is a replay that records which request ran with which token.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) replay(id string) Replay[string] {
	return func(ctx context.Context, access string) (string, error) {
		r.mu.Lock()
		r.order = append(r.order, id)
		r.mu.Unlock()
		return id + "@" + access, nil
	}
}

func waitQueued(t *testing.T, c *Coordinator[string], n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Stats().Queued == n }, 2*time.Second, time.Millisecond)
}

func TestRecover_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	store := &fakeStore{access: "access-1", refresh: "refresh-1"}
	g := newGated()
	c := New[string](store, g.fn)
	rec := &recorder{}

	const n = 5
	results := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Recover(context.Background(), "access-1", rec.replay(fmt.Sprint(i)))
		}(i)
		if i == 0 {
			require.Eventually(t, func() bool { return g.calls.Load() == 1 }, 2*time.Second, time.Millisecond)
		} else {
			waitQueued(t, c, i)
		}
	}

	close(g.release)
	wg.Wait()

	assert.EqualValues(t, 1, g.calls.Load(), "exactly one refresh call")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("%d@access-2", i), results[i])
	}

	// Queued requests replay in arrival order; the leader replays on its own.
	rec.mu.Lock()
	var queued []string
	for _, id := range rec.order {
		if id != "0" {
			queued = append(queued, id)
		}
	}
	rec.mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3", "4"}, queued)

	st := c.Stats()
	assert.EqualValues(t, 1, st.Refreshes)
	assert.EqualValues(t, 0, st.Failures)
	assert.EqualValues(t, n-1, st.Replays)
	assert.Equal(t, "idle", st.State)
	assert.Equal(t, "access-2", store.AccessToken(context.Background()))
}

func TestRecover_FailureRejectsAllAndCallsHandlerOnce(t *testing.T) {
	store := &fakeStore{access: "access-1", refresh: "refresh-1"}
	g := newGated()
	rejected := errors.New("refresh rejected")
	g.err = rejected
	c := New[string](store, g.fn)

	var handlerCalls atomic.Int32
	c.SetFailureHandler(func(context.Context) { handlerCalls.Add(1) })

	rec := &recorder{}
	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Recover(context.Background(), "access-1", rec.replay(fmt.Sprint(i)))
		}(i)
		if i == 0 {
			require.Eventually(t, func() bool { return g.calls.Load() == 1 }, 2*time.Second, time.Millisecond)
		} else {
			waitQueued(t, c, i)
		}
	}
	close(g.release)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, ErrSessionExpired)
		require.ErrorIs(t, err, rejected)
	}
	assert.Empty(t, rec.order, "nothing replayed after a failed refresh")
	assert.EqualValues(t, 1, handlerCalls.Load())
	assert.Equal(t, 1, store.clears)
	assert.Equal(t, "", store.AccessToken(context.Background()))
	assert.EqualValues(t, 1, c.Stats().Failures)
	assert.Equal(t, "idle", c.Stats().State)
}

func TestRecover_NoRefreshTokenSkipsNetwork(t *testing.T) {
	store := &fakeStore{access: "access-1"}
	g := newGated()
	close(g.release)
	c := New[string](store, g.fn)

	called := false
	c.SetFailureHandler(func(context.Context) { called = true })

	_, err := c.Recover(context.Background(), "access-1", (&recorder{}).replay("x"))
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Zero(t, g.calls.Load())
	assert.True(t, called)
	assert.EqualValues(t, 0, c.Stats().Refreshes)
}

func TestRecover_PersistFailureIsRefreshFailure(t *testing.T) {
	diskErr := errors.New("disk full")
	store := &fakeStore{access: "access-1", refresh: "refresh-1", setErr: diskErr}
	g := newGated()
	close(g.release)
	c := New[string](store, g.fn)

	_, err := c.Recover(context.Background(), "access-1", (&recorder{}).replay("x"))
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, diskErr)
	assert.Equal(t, 1, store.clears)
}

func TestRecover_StaleTokenReplaysWithoutRefresh(t *testing.T) {
	store := &fakeStore{access: "access-2", refresh: "refresh-2"}
	g := newGated()
	c := New[string](store, g.fn)

	got, err := c.Recover(context.Background(), "access-1", (&recorder{}).replay("late"))
	require.NoError(t, err)
	assert.Equal(t, "late@access-2", got)
	assert.Zero(t, g.calls.Load())
	assert.EqualValues(t, 1, c.Stats().Replays)
}

func TestRecover_CancelledWaiterReturnsContextError(t *testing.T) {
	store := &fakeStore{access: "access-1", refresh: "refresh-1"}
	g := newGated()
	c := New[string](store, g.fn)
	rec := &recorder{}

	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.Recover(context.Background(), "access-1", rec.replay("leader"))
		leaderDone <- err
	}()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, 2*time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := c.Recover(ctx, "access-1", rec.replay("abandoned"))
		waiterDone <- err
	}()
	waitQueued(t, c, 1)

	cancel()
	require.ErrorIs(t, <-waiterDone, context.Canceled)

	close(g.release)
	require.NoError(t, <-leaderDone)

	require.Eventually(t, func() bool { return c.Stats().Queued == 0 }, time.Second, time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.NotContains(t, rec.order, "abandoned")
}

func TestRecover_RefreshRunsDetachedFromCallerContext(t *testing.T) {
	store := &fakeStore{access: "access-1", refresh: "refresh-1"}
	var refreshCtxErr error
	c := New[string](store, func(ctx context.Context, _ string) (models.AuthTokens, error) {
		refreshCtxErr = ctx.Err()
		return models.AuthTokens{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = c.Recover(ctx, "access-1", func(ctx context.Context, _ string) (string, error) {
		return "", ctx.Err()
	})
	assert.NoError(t, refreshCtxErr)
	assert.Equal(t, "access-2", store.AccessToken(context.Background()))
}

func TestRefresh_Forced(t *testing.T) {
	store := &fakeStore{access: "access-1", refresh: "refresh-1"}
	g := newGated()
	close(g.release)
	c := New[string](store, g.fn, WithTimeout[string](time.Second))

	require.NoError(t, c.Refresh(context.Background()))
	assert.EqualValues(t, 1, g.calls.Load())
	assert.Equal(t, "access-2", store.AccessToken(context.Background()))
}

func TestRecover_WorksAgainAfterFailure(t *testing.T) {
	store := &fakeStore{access: "access-1"}
	var calls atomic.Int32
	c := New[string](store, func(context.Context, string) (models.AuthTokens, error) {
		calls.Add(1)
		return models.AuthTokens{AccessToken: "access-9", RefreshToken: "refresh-9"}, nil
	})

	_, err := c.Recover(context.Background(), "access-1", (&recorder{}).replay("a"))
	require.ErrorIs(t, err, ErrNoRefreshToken)

	store.mu.Lock()
	store.access, store.refresh = "access-5", "refresh-5"
	store.mu.Unlock()

	got, err := c.Recover(context.Background(), "access-5", (&recorder{}).replay("b"))
	require.NoError(t, err)
	assert.Equal(t, "b@access-9", got)
	assert.EqualValues(t, 1, calls.Load())
}
