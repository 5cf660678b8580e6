package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/tokenstore"
)

func jwtExpiring(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// fakeStore is an in-memory Store with switchable write failures.
type fakeStore struct {
	mu        sync.Mutex
	tokens    tokenstore.Tokens
	user      *models.User
	failSave  bool
	failUser  bool
	userDelay time.Duration
	clears    int
}

func (f *fakeStore) GetTokens(context.Context) tokenstore.Tokens {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens
}

func (f *fakeStore) GetUserData(context.Context) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user.Clone()
}

func (f *fakeStore) SaveSession(_ context.Context, t models.AuthTokens, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return tokenstore.ErrStorageWrite
	}
	f.tokens = tokenstore.Tokens{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	f.user = u.Clone()
	return nil
}

func (f *fakeStore) SetUserData(_ context.Context, u *models.User) error {
	f.mu.Lock()
	delay, fail := f.userDelay, f.failUser
	f.mu.Unlock()

	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	if fail {
		return tokenstore.ErrStorageWrite
	}
	f.user = u.Clone()
	return nil
}

func (f *fakeStore) ClearTokens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = tokenstore.Tokens{}
	f.user = nil
	f.clears++
	return nil
}

type fakeAPI struct {
	calls atomic.Int32
	err   error
}

func (a *fakeAPI) Logout(context.Context) error {
	a.calls.Add(1)
	return a.err
}

type countingNav struct {
	n       atomic.Int32
	mu      sync.Mutex
	reasons []SignOutReason
}

func (c *countingNav) NavigateToSignIn(_ context.Context, reason SignOutReason) {
	c.n.Add(1)
	c.mu.Lock()
	c.reasons = append(c.reasons, reason)
	c.mu.Unlock()
}

func (c *countingNav) Reasons() []SignOutReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.reasons)
}

func testUser(id string) *models.User {
	return &models.User{ID: id, PhoneNumber: "+15550001", PrimaryAuthMethod: models.AuthMethodPhone}
}

func testTokens() models.AuthTokens {
	return models.AuthTokens{AccessToken: "access", RefreshToken: "refresh"}
}

func TestManager_StartsLoading(t *testing.T) {
	m := New(&fakeStore{}, nil)
	s := m.State()
	assert.True(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
}

func TestManager_Restore(t *testing.T) {
	tests := []struct {
		name   string
		tokens func(t *testing.T) tokenstore.Tokens
		user   *models.User
		want   bool
	}{
		{
			name:   "token and user",
			tokens: func(*testing.T) tokenstore.Tokens { return tokenstore.Tokens{AccessToken: "a", RefreshToken: "r"} },
			user:   testUser("u1"),
			want:   true,
		},
		{
			name:   "nothing stored",
			tokens: func(*testing.T) tokenstore.Tokens { return tokenstore.Tokens{} },
		},
		{
			name:   "token without user",
			tokens: func(*testing.T) tokenstore.Tokens { return tokenstore.Tokens{AccessToken: "a", RefreshToken: "r"} },
		},
		{
			name:   "user without token",
			tokens: func(*testing.T) tokenstore.Tokens { return tokenstore.Tokens{} },
			user:   testUser("u1"),
		},
		{
			name: "expired access and no refresh token",
			tokens: func(t *testing.T) tokenstore.Tokens {
				return tokenstore.Tokens{AccessToken: jwtExpiring(t, time.Now().Add(-time.Hour))}
			},
			user: testUser("u1"),
		},
		{
			name: "expired access with refresh token",
			tokens: func(t *testing.T) tokenstore.Tokens {
				return tokenstore.Tokens{AccessToken: jwtExpiring(t, time.Now().Add(-time.Hour)), RefreshToken: "r"}
			},
			user: testUser("u1"),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(&fakeStore{tokens: tt.tokens(t), user: tt.user}, nil)
			m.Restore(context.Background())

			s := m.State()
			assert.False(t, s.IsLoading)
			assert.Equal(t, tt.want, s.IsAuthenticated)
			if tt.want {
				require.NotNil(t, s.User)
				assert.Equal(t, tt.user.ID, s.User.ID)
			} else {
				assert.Nil(t, s.User)
			}
		})
	}
}

func TestManager_RestoreFromEncryptedStore(t *testing.T) {
	ctx := context.Background()
	store, err := tokenstore.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, testTokens(), testUser("u1")))

	m := New(store, nil)
	m.Restore(ctx)
	assert.True(t, m.State().IsAuthenticated)
}

func TestManager_LoginWritesThroughThenAuthenticates(t *testing.T) {
	store := &fakeStore{}
	m := New(store, nil)

	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	s := m.State()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "access", store.tokens.AccessToken)
	assert.Equal(t, "u1", store.user.ID)
}

func TestManager_LoginWriteFailureLeavesStateUntouched(t *testing.T) {
	m := New(&fakeStore{failSave: true}, nil)
	m.Restore(context.Background())
	before := m.State()

	err := m.Login(context.Background(), testTokens(), testUser("u1"))
	require.ErrorIs(t, err, tokenstore.ErrStorageWrite)
	assert.Equal(t, before, m.State())
}

func TestManager_LogoutAlwaysClears(t *testing.T) {
	for _, apiErr := range []error{nil, errors.New("network down")} {
		t.Run(fmt.Sprint(apiErr), func(t *testing.T) {
			store := &fakeStore{}
			api := &fakeAPI{err: apiErr}
			nav := &countingNav{}
			m := New(store, api, WithNavigator(nav))
			require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

			m.Logout(context.Background())

			assert.Equal(t, int32(1), api.calls.Load())
			assert.Equal(t, []SignOutReason{ReasonSignedOut}, nav.Reasons())
			assert.False(t, m.State().IsAuthenticated)
			assert.Nil(t, m.State().User)
			assert.Empty(t, store.GetTokens(context.Background()).AccessToken)
			assert.Nil(t, store.GetUserData(context.Background()))
		})
	}
}

func TestManager_ClearAuthStateDoesNotNavigate(t *testing.T) {
	nav := &countingNav{}
	m := New(&fakeStore{}, nil, WithNavigator(nav))
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	m.ClearAuthState(context.Background())

	assert.False(t, m.State().IsAuthenticated)
	assert.Zero(t, nav.n.Load())
}

func TestManager_UpdateUserAppliesImmediatelyAndPersists(t *testing.T) {
	store := &fakeStore{userDelay: 20 * time.Millisecond}
	m := New(store, nil)
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	u := testUser("u1")
	u.DisplayName = "Ann"
	m.UpdateUser(context.Background(), u)

	assert.Equal(t, "Ann", m.State().User.DisplayName)

	m.Wait()
	assert.Equal(t, "Ann", store.GetUserData(context.Background()).DisplayName)
}

func TestManager_UpdateUserFailureKeepsMemory(t *testing.T) {
	store := &fakeStore{}
	m := New(store, nil)
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))
	store.mu.Lock()
	store.failUser = true
	store.mu.Unlock()

	u := testUser("u1")
	u.DisplayName = "Ann"
	m.UpdateUser(context.Background(), u)
	m.Wait()

	assert.Equal(t, "Ann", m.State().User.DisplayName)
	assert.Empty(t, store.GetUserData(context.Background()).DisplayName)
}

func TestManager_UpdateUserLastWriteWins(t *testing.T) {
	store := &fakeStore{userDelay: time.Millisecond}
	m := New(store, nil)
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	for i := range 20 {
		u := testUser("u1")
		u.DisplayName = fmt.Sprintf("name-%d", i)
		m.UpdateUser(context.Background(), u)
	}
	m.Wait()

	assert.Equal(t, "name-19", store.GetUserData(context.Background()).DisplayName)
}

func TestManager_UpdateUserAfterLogoutIsNotPersisted(t *testing.T) {
	store := &fakeStore{userDelay: 10 * time.Millisecond}
	m := New(store, nil)
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	m.UpdateUser(context.Background(), testUser("u1"))
	m.Logout(context.Background())
	m.Wait()

	assert.Nil(t, store.GetUserData(context.Background()))
}

func TestManager_UpdateUserWhenSignedOutIsIgnored(t *testing.T) {
	store := &fakeStore{}
	m := New(store, nil)
	m.Restore(context.Background())

	var got []models.SessionState
	cancel := m.Subscribe(func(s models.SessionState) { got = append(got, s) })
	defer cancel()

	m.UpdateUser(context.Background(), testUser("u1"))
	m.Wait()

	assert.False(t, m.State().IsAuthenticated)
	assert.Nil(t, m.State().User)
	assert.Empty(t, got)
	assert.Nil(t, store.GetUserData(context.Background()))

	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))
	m.Logout(context.Background())
	m.UpdateUser(context.Background(), testUser("u1"))
	m.Wait()
	assert.Nil(t, m.State().User)
}

func TestSignOutReason_String(t *testing.T) {
	assert.Equal(t, "signed_out", ReasonSignedOut.String())
	assert.Equal(t, "session_expired", ReasonSessionExpired.String())
	assert.Equal(t, "unknown", SignOutReason(42).String())
}

func TestManager_HandleAuthFailureCoalesces(t *testing.T) {
	store := &fakeStore{}
	nav := &countingNav{}
	m := New(store, nil, WithNavigator(nav))
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.HandleAuthFailure(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, []SignOutReason{ReasonSessionExpired}, nav.Reasons())
	assert.Equal(t, 1, store.clears)
	assert.False(t, m.State().IsAuthenticated)

	// A new session gets its own teardown.
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))
	m.HandleAuthFailure(context.Background())
	assert.Equal(t, int32(2), nav.n.Load())
}

func TestManager_HandleAuthFailureAfterLogoutIsNoop(t *testing.T) {
	nav := &countingNav{}
	m := New(&fakeStore{}, nil, WithNavigator(nav))
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	m.Logout(context.Background())
	m.HandleAuthFailure(context.Background())

	assert.Equal(t, int32(1), nav.n.Load())
}

func TestManager_StateIsACopy(t *testing.T) {
	m := New(&fakeStore{}, nil)
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	s := m.State()
	s.User.ID = "changed"

	assert.Equal(t, "u1", m.State().User.ID)
}

func TestManager_Subscribe(t *testing.T) {
	m := New(&fakeStore{}, nil)

	var mu sync.Mutex
	var seen []bool
	cancel := m.Subscribe(func(s models.SessionState) {
		mu.Lock()
		seen = append(seen, s.IsAuthenticated)
		mu.Unlock()
	})

	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))
	m.ClearAuthState(context.Background())
	cancel()
	require.NoError(t, m.Login(context.Background(), testTokens(), testUser("u1")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}
