// Package session holds the client's authentication state.
//
// Manager is the only writer of the signed-in user and the authenticated
// flag. Every change is written through to the token store first and only
// then applied in memory, except UpdateUser which applies in memory first
// and persists in the background.
package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Store is the part of the secure token store the session uses.
type Store interface {
	GetTokens(ctx context.Context) tokenstore.Tokens
	GetUserData(ctx context.Context) *models.User
	SaveSession(ctx context.Context, t models.AuthTokens, u *models.User) error
	SetUserData(ctx context.Context, u *models.User) error
	ClearTokens(ctx context.Context) error
}

// LogoutAPI invalidates the session on the server.
type LogoutAPI interface {
	Logout(ctx context.Context) error
}

// SignOutReason tells a Navigator how the session ended.
type SignOutReason int

const (
	// ReasonSignedOut is a logout the user asked for.
	ReasonSignedOut SignOutReason = iota
	// ReasonSessionExpired means the tokens could not be refreshed.
	ReasonSessionExpired
)

func (r SignOutReason) String() string {
	switch r {
	case ReasonSignedOut:
		return "signed_out"
	case ReasonSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// Navigator moves the presentation layer to its sign-in entry point.
type Navigator interface {
	NavigateToSignIn(ctx context.Context, reason SignOutReason)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, reason SignOutReason)

func (f NavigatorFunc) NavigateToSignIn(ctx context.Context, reason SignOutReason) { f(ctx, reason) }

// Refresher forces a coordinated token refresh.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Manager struct {
	store     Store
	api       LogoutAPI
	nav       Navigator
	refresher Refresher
	log       logging.Logger

	mu    sync.RWMutex
	state models.SessionState
	// epoch counts authenticated sessions; teardown runs at most once per
	// epoch.
	epoch         int64
	teardownEpoch int64
	seq           uint64

	// writeMu orders every store write issued by the manager.
	writeMu sync.Mutex
	pending sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]func(models.SessionState)
	nextSub int
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.nav = n }
}

// WithRefresher lets TokenSource refresh an expired access token before
// handing it out.
func WithRefresher(r Refresher) Option {
	return func(m *Manager) { m.refresher = r }
}

// New returns a manager in the loading state. api may be nil, in which case
// Logout only clears local state.
func New(store Store, api LogoutAPI, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		api:           api,
		nav:           NavigatorFunc(func(context.Context, SignOutReason) {}),
		log:           logging.Nop(),
		state:         models.SessionState{IsLoading: true},
		teardownEpoch: -1,
		subs:          make(map[int]func(models.SessionState)),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns a snapshot of the session.
func (m *Manager) State() models.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Restore loads the persisted session. It never fails: anything missing or
// unreadable leaves the session signed out.
func (m *Manager) Restore(ctx context.Context) {
	var (
		tokens tokenstore.Tokens
		user   *models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tokens = m.store.GetTokens(gctx)
		return nil
	})
	g.Go(func() error {
		user = m.store.GetUserData(gctx)
		return nil
	})
	_ = g.Wait()

	authenticated := tokens.AccessToken != "" && user != nil
	if authenticated && tokens.RefreshToken == "" && tokenstore.IsTokenExpired(tokens.AccessToken) {
		m.log.Info(ctx, "stored access token expired and no refresh token, starting signed out")
		authenticated = false
	}

	m.mu.Lock()
	if authenticated {
		m.epoch++
		m.state = models.SessionState{User: user, IsAuthenticated: true}
	} else {
		m.state = models.SessionState{}
	}
	snap := m.state.Clone()
	m.mu.Unlock()

	m.log.Debug(ctx, "session restored", "authenticated", authenticated)
	m.notify(snap)
}

// Login persists tokens and user in one write and then marks the session
// authenticated. On a write failure memory is left untouched.
func (m *Manager) Login(ctx context.Context, tokens models.AuthTokens, user *models.User) error {
	if user == nil {
		return errors.New("login: user is required")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.SaveSession(ctx, tokens, user); err != nil {
		return err
	}

	m.mu.Lock()
	m.epoch++
	m.seq++
	m.state = models.SessionState{User: user.Clone(), IsAuthenticated: true}
	snap := m.state.Clone()
	m.mu.Unlock()

	m.log.Info(ctx, "signed in", "user_id", user.ID)
	m.notify(snap)
	return nil
}

// Logout tells the server (errors are logged, not returned), then clears
// local state and navigates to sign-in.
func (m *Manager) Logout(ctx context.Context) {
	if m.api != nil {
		if err := m.api.Logout(ctx); err != nil {
			m.log.Warn(ctx, "server logout failed, clearing local session anyway", "error", err)
		}
	}

	m.mu.Lock()
	m.teardownEpoch = m.epoch
	m.mu.Unlock()

	m.clear(ctx)
	m.log.Info(ctx, "signed out")
	m.nav.NavigateToSignIn(ctx, ReasonSignedOut)
}

// ClearAuthState clears the store and resets the session without
// navigating.
func (m *Manager) ClearAuthState(ctx context.Context) {
	m.clear(ctx)
}

// HandleAuthFailure ends the session after a refresh could not recover it.
// Concurrent calls for the same session tear it down once.
func (m *Manager) HandleAuthFailure(ctx context.Context) {
	m.mu.Lock()
	if m.teardownEpoch == m.epoch {
		m.mu.Unlock()
		m.log.Debug(ctx, "session already torn down")
		return
	}
	m.teardownEpoch = m.epoch
	m.mu.Unlock()

	m.log.Warn(ctx, "session expired, signing out")
	m.clear(ctx)
	m.nav.NavigateToSignIn(ctx, ReasonSessionExpired)
}

func (m *Manager) clear(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.ClearTokens(ctx); err != nil {
		m.log.Error(ctx, "failed to clear secure storage", "error", err)
	}

	m.mu.Lock()
	m.seq++
	m.state = models.SessionState{}
	snap := m.state.Clone()
	m.mu.Unlock()

	m.notify(snap)
}

// UpdateUser replaces the user in memory immediately and persists it in the
// background. A write that has been superseded by a newer update, a logout
// or a new login is dropped. Persistence failures are logged and do not
// roll memory back. Updates on a signed-out manager are ignored.
func (m *Manager) UpdateUser(ctx context.Context, user *models.User) {
	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		m.log.Debug(ctx, "user update ignored, not signed in")
		return
	}
	m.seq++
	seq := m.seq
	m.state.User = user.Clone()
	snap := m.state.Clone()
	m.mu.Unlock()

	m.notify(snap)

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.persistUser(context.WithoutCancel(ctx), seq, snap.User)
	}()
}

func (m *Manager) persistUser(ctx context.Context, seq uint64, user *models.User) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	stale := seq != m.seq || !m.state.IsAuthenticated
	m.mu.RUnlock()
	if stale {
		return
	}

	if err := m.store.SetUserData(ctx, user); err != nil {
		m.log.Error(ctx, "failed to persist user", "error", err)
	}
}

// Wait blocks until background user writes have finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function unregisters it.
func (m *Manager) Subscribe(fn func(models.SessionState)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify(s models.SessionState) {
	m.subMu.Lock()
	fns := make([]func(models.SessionState), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s.Clone())
	}
}
