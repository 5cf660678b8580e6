// Package refresh serializes access-token refreshes for every transport of
// the client.
//
// A request that receives 401 hands itself to Coordinator.Recover. The first
// such request becomes the leader and performs the single refresh call; the
// ones arriving while it runs are queued and replayed in arrival order once
// new tokens are stored. When the refresh cannot succeed the queue is
// rejected, the stored tokens are cleared and the failure handler runs.
//
//	Idle --401--> Refreshing --ok--> Idle
//	                  \--error--> Failed --queue rejected--> Idle
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

var (
	// ErrSessionExpired is wrapped by every error caused by a failed refresh.
	ErrSessionExpired = errors.New("session expired")

	ErrNoRefreshToken = errors.New("no refresh token stored")
)

// TokenStore is the part of the secure token store the coordinator needs.
type TokenStore interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	SetTokens(ctx context.Context, t models.AuthTokens) error
	ClearTokens(ctx context.Context) error
}

// RefreshFunc exchanges a refresh token for a new pair.
type RefreshFunc func(ctx context.Context, refreshToken string) (models.AuthTokens, error)

// Replay re-sends a request with the given access token.
type Replay[R any] func(ctx context.Context, accessToken string) (R, error)

type state int

const (
	stateIdle state = iota
	stateRefreshing
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateRefreshing:
		return "refreshing"
	case stateFailed:
		return "failed"
	default:
		return "idle"
	}
}

type result[R any] struct {
	val R
	err error
}

type waiter[R any] struct {
	ctx    context.Context
	replay Replay[R]
	done   chan result[R]
}

// Stats are cumulative counters for diagnostics.
type Stats struct {
	Refreshes int64
	Failures  int64
	Replays   int64
	Queued    int
	State     string
}

type Coordinator[R any] struct {
	store   TokenStore
	refresh RefreshFunc
	log     logging.Logger
	timeout time.Duration

	mu      sync.Mutex
	state   state
	queue   []*waiter[R]
	lastErr error

	onFailure atomic.Pointer[func(context.Context)]

	refreshes atomic.Int64
	failures  atomic.Int64
	replays   atomic.Int64
}

type Option[R any] func(*Coordinator[R])

func WithLogger[R any](l logging.Logger) Option[R] {
	return func(c *Coordinator[R]) { c.log = l }
}

// WithTimeout bounds the refresh call. Zero means no bound beyond the
// refresh function's own.
func WithTimeout[R any](d time.Duration) Option[R] {
	return func(c *Coordinator[R]) { c.timeout = d }
}

func New[R any](store TokenStore, refresh RefreshFunc, opts ...Option[R]) *Coordinator[R] {
	c := &Coordinator[R]{store: store, refresh: refresh, log: logging.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetFailureHandler registers the callback run once per failed refresh,
// after tokens are cleared.
func (c *Coordinator[R]) SetFailureHandler(fn func(ctx context.Context)) {
	if fn == nil {
		c.onFailure.Store(nil)
		return
	}
	c.onFailure.Store(&fn)
}

// Recover is called by a request that got 401 while sending usedToken. It
// returns the replayed request's result, or an error wrapping
// ErrSessionExpired when no valid session can be obtained.
func (c *Coordinator[R]) Recover(ctx context.Context, usedToken string, replay Replay[R]) (R, error) {
	return c.recover(ctx, usedToken, replay, false)
}

// Refresh forces a coordinated refresh without a pending request.
func (c *Coordinator[R]) Refresh(ctx context.Context) error {
	_, err := c.recover(ctx, "", func(context.Context, string) (R, error) {
		var zero R
		return zero, nil
	}, true)
	return err
}

func (c *Coordinator[R]) recover(ctx context.Context, usedToken string, replay Replay[R], force bool) (R, error) {
	var zero R

	c.mu.Lock()
	switch c.state {
	case stateRefreshing:
		w := &waiter[R]{ctx: ctx, replay: replay, done: make(chan result[R], 1)}
		c.queue = append(c.queue, w)
		n := len(c.queue)
		c.mu.Unlock()

		c.log.Debug(ctx, "request queued behind token refresh", "queued", n)
		select {
		case res := <-w.done:
			return res.val, res.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}

	case stateFailed:
		err := c.lastErr
		c.mu.Unlock()
		return zero, err
	}

	if !force {
		if current := c.store.AccessToken(ctx); current != "" && current != usedToken {
			c.mu.Unlock()
			c.replays.Add(1)
			c.log.Debug(ctx, "token already refreshed, replaying request")
			return replay(ctx, current)
		}
	}

	c.state = stateRefreshing
	c.mu.Unlock()

	access, err := c.doRefresh(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
		c.fail(ctx, err)
		return zero, err
	}

	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.state = stateIdle
	c.mu.Unlock()

	if len(queue) > 0 {
		go c.drain(queue, access)
	}

	return replay(ctx, access)
}

func (c *Coordinator[R]) doRefresh(ctx context.Context) (string, error) {
	refreshToken := c.store.RefreshToken(ctx)
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}
	c.refreshes.Add(1)

	rctx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, c.timeout)
		defer cancel()
	}

	tokens, err := c.refresh(rctx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := c.store.SetTokens(rctx, tokens); err != nil {
		return "", err
	}

	c.log.Info(ctx, "access token refreshed")
	return tokens.AccessToken, nil
}

// drain replays queued requests one at a time in arrival order.
func (c *Coordinator[R]) drain(queue []*waiter[R], access string) {
	for _, w := range queue {
		if err := w.ctx.Err(); err != nil {
			w.done <- result[R]{err: err}
			continue
		}
		c.replays.Add(1)
		val, err := w.replay(w.ctx, access)
		w.done <- result[R]{val: val, err: err}
	}
}

func (c *Coordinator[R]) fail(ctx context.Context, err error) {
	c.failures.Add(1)

	c.mu.Lock()
	c.state = stateFailed
	c.lastErr = err
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, w := range queue {
		w.done <- result[R]{err: err}
	}

	c.log.Warn(ctx, "token refresh failed, ending session", "rejected", len(queue), "error", err)

	dctx := context.WithoutCancel(ctx)
	if cerr := c.store.ClearTokens(dctx); cerr != nil {
		c.log.Error(ctx, "clear tokens after failed refresh", "error", cerr)
	}
	if fn := c.onFailure.Load(); fn != nil {
		(*fn)(dctx)
	}

	c.mu.Lock()
	c.state = stateIdle
	c.lastErr = nil
	c.mu.Unlock()
}

func (c *Coordinator[R]) Stats() Stats {
	c.mu.Lock()
	queued, st := len(c.queue), c.state
	c.mu.Unlock()

	return Stats{
		Refreshes: c.refreshes.Load(),
		Failures:  c.failures.Load(),
		Replays:   c.replays.Load(),
		Queued:    queued,
		State:     st.String(),
	}
}
