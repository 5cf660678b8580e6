package tokenstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/vault"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
)

func newStore(t *testing.T) (*Store, *vault.MemoryRepository) {
	t.Helper()
	repo := vault.NewMemoryRepository()
	aead, err := cryptox.NewAEAD(bytes.Repeat([]byte{9}, cryptox.KeySize))
	require.NoError(t, err)
	return New(repo, aead), repo
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

type failingRepo struct {
	vault.Repository
	getErr error
	setErr error
}

func (f failingRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.Get(ctx, key)
}

func (f failingRepo) SetMany(ctx context.Context, items map[string][]byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Repository.SetMany(ctx, items)
}

func TestStore_EmptyStoreReturnsAbsent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.Equal(t, Tokens{}, s.GetTokens(ctx))
	assert.Nil(t, s.GetUserData(ctx))
}

func TestStore_SetTokensThenGet(t *testing.T) {
	s, repo := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetTokens(ctx, models.AuthTokens{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	assert.Equal(t, Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}, s.GetTokens(ctx))
	assert.Equal(t, "access-1", s.AccessToken(ctx))
	assert.Equal(t, "refresh-1", s.RefreshToken(ctx))

	raw, err := repo.List(ctx)
	require.NoError(t, err)
	for _, v := range raw {
		assert.NotContains(t, string(v), "access-1")
		assert.NotContains(t, string(v), "refresh-1")
	}
}

func TestStore_SetTokensRejectsEmpty(t *testing.T) {
	s, repo := newStore(t)
	ctx := context.Background()

	err := s.SetTokens(ctx, models.AuthTokens{AccessToken: "a"})
	require.ErrorIs(t, err, ErrStorageWrite)
	require.ErrorIs(t, err, models.ErrEmptyToken)

	m, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestStore_SetTokensWriteFailureWrapsErrStorageWrite(t *testing.T) {
	aead, err := cryptox.NewAEAD(bytes.Repeat([]byte{9}, cryptox.KeySize))
	require.NoError(t, err)
	disk := errors.New("disk full")
	s := New(failingRepo{Repository: vault.NewMemoryRepository(), setErr: disk}, aead)

	err = s.SetTokens(context.Background(), models.AuthTokens{AccessToken: "a", RefreshToken: "r"})
	require.ErrorIs(t, err, ErrStorageWrite)
	require.ErrorIs(t, err, disk)
}

func TestStore_ReadFailureDegradesToAbsent(t *testing.T) {
	aead, err := cryptox.NewAEAD(bytes.Repeat([]byte{9}, cryptox.KeySize))
	require.NoError(t, err)
	s := New(failingRepo{Repository: vault.NewMemoryRepository(), getErr: errors.New("io")}, aead)

	assert.Equal(t, Tokens{}, s.GetTokens(context.Background()))
	assert.Nil(t, s.GetUserData(context.Background()))
}

func TestStore_UndecryptableEntryIsAbsent(t *testing.T) {
	s, repo := newStore(t)
	ctx := context.Background()

	require.NoError(t, repo.SetMany(ctx, map[string][]byte{
		KeyAccessToken:  []byte("not-sealed-at-all-but-long-enough"),
		KeyRefreshToken: {1},
	}))

	assert.Equal(t, Tokens{}, s.GetTokens(ctx))
}

func TestStore_CorruptUserDataIsAbsent(t *testing.T) {
	s, repo := newStore(t)
	ctx := context.Background()

	sealed, err := s.cipher.Seal([]byte("{not json"))
	require.NoError(t, err)
	require.NoError(t, repo.SetMany(ctx, map[string][]byte{KeyUserData: sealed}))

	assert.Nil(t, s.GetUserData(ctx))
}

func TestStore_UserDataRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	email := "a@b.c"
	u := &models.User{ID: "u1", Email: &email, PrimaryAuthMethod: models.AuthMethodEmail, Status: models.UserStatusActive}

	require.NoError(t, s.SetUserData(ctx, u))
	assert.Equal(t, u, s.GetUserData(ctx))
}

func TestStore_ClearTokensIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, models.AuthTokens{AccessToken: "a", RefreshToken: "r"}, &models.User{ID: "u1"}))
	require.NoError(t, s.ClearTokens(ctx))
	require.NoError(t, s.ClearTokens(ctx))

	assert.Equal(t, Tokens{}, s.GetTokens(ctx))
	assert.Nil(t, s.GetUserData(ctx))
}

func TestStore_KeysAndPurge(t *testing.T) {
	s, repo := newStore(t)
	ctx := context.Background()

	require.NoError(t, repo.SetMany(ctx, map[string][]byte{KeyKDFSalt: []byte("salt")}))
	require.NoError(t, s.SaveSession(ctx, models.AuthTokens{AccessToken: "a", RefreshToken: "r"}, &models.User{ID: "u1"}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyAccessToken, KeyRefreshToken, KeyUserData, KeyKDFSalt}, keys)

	require.NoError(t, s.ClearTokens(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyKDFSalt}, keys, "the salt survives a logout")

	require.NoError(t, s.Purge(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_SaveSessionWritesEverything(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, models.AuthTokens{AccessToken: "a", RefreshToken: "r"}, &models.User{ID: "u1"}))

	assert.Equal(t, Tokens{AccessToken: "a", RefreshToken: "r"}, s.GetTokens(ctx))
	require.NotNil(t, s.GetUserData(ctx))
	assert.Equal(t, "u1", s.GetUserData(ctx).ID)
}

func TestOpen_PersistsAcrossReopenWithKeyFile(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	s, closer, err := Open(ctx, dir, "")
	require.NoError(t, err)
	require.NoError(t, s.SetTokens(ctx, models.AuthTokens{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, closer.Close())

	s2, closer2, err := Open(ctx, dir, "")
	require.NoError(t, err)
	defer closer2.Close()
	assert.Equal(t, Tokens{AccessToken: "a", RefreshToken: "r"}, s2.GetTokens(ctx))
}

func TestOpen_PassphraseMode(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, closer, err := Open(ctx, dir, "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.SetTokens(ctx, models.AuthTokens{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, closer.Close())

	s2, closer2, err := Open(ctx, dir, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "a", s2.AccessToken(ctx))
	require.NoError(t, closer2.Close())

	s3, closer3, err := Open(ctx, dir, "wrong")
	require.NoError(t, err)
	defer closer3.Close()
	assert.Equal(t, Tokens{}, s3.GetTokens(ctx), "wrong passphrase reads as signed out")
}

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	require.NoError(t, s.SetTokens(context.Background(), models.AuthTokens{AccessToken: "a", RefreshToken: "r"}))
	assert.Equal(t, "r", s.RefreshToken(context.Background()))
}
