// Package tokenstore persists the session's tokens and user record in the
// encrypted local vault.
//
// Reads never fail: a missing, undecryptable or unparsable entry is logged
// and reported as absent, so a damaged vault degrades to "signed out"
// instead of breaking the client. Writes return errors wrapping
// ErrStorageWrite and are atomic per call.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/vault"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Persisted keys.
const (
	KeyAccessToken  = "auth_access_token"
	KeyRefreshToken = "auth_refresh_token"
	KeyUserData     = "auth_user_data"
)

var ErrStorageWrite = errors.New("secure storage write failed")

// Tokens is the stored pair; a missing entry is an empty string.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

type Store struct {
	repo   vault.Repository
	cipher cryptox.Cipher
	log    logging.Logger
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(repo vault.Repository, cipher cryptox.Cipher, opts ...Option) *Store {
	s := &Store{repo: repo, cipher: cipher, log: logging.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) read(ctx context.Context, key string) []byte {
	sealed, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "secure storage read failed", "key", key, "error", err)
		return nil
	}
	if sealed == nil {
		return nil
	}

	plain, err := s.cipher.Open(sealed)
	if err != nil {
		s.log.Warn(ctx, "secure storage entry unreadable, treating as absent", "key", key, "error", err)
		return nil
	}
	return plain
}

func (s *Store) seal(items map[string][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(items))
	for k, v := range items {
		sealed, err := s.cipher.Seal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: seal %s: %w", ErrStorageWrite, k, err)
		}
		out[k] = sealed
	}
	return out, nil
}

func (s *Store) write(ctx context.Context, items map[string][]byte) error {
	sealed, err := s.seal(items)
	if err != nil {
		return err
	}
	if err := s.repo.SetMany(ctx, sealed); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

// GetTokens returns both stored tokens.
func (s *Store) GetTokens(ctx context.Context) Tokens {
	return Tokens{
		AccessToken:  string(s.read(ctx, KeyAccessToken)),
		RefreshToken: string(s.read(ctx, KeyRefreshToken)),
	}
}

func (s *Store) AccessToken(ctx context.Context) string {
	return string(s.read(ctx, KeyAccessToken))
}

func (s *Store) RefreshToken(ctx context.Context) string {
	return string(s.read(ctx, KeyRefreshToken))
}

// SetTokens replaces the pair atomically. Both tokens must be non-empty.
func (s *Store) SetTokens(ctx context.Context, t models.AuthTokens) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	err := s.write(ctx, map[string][]byte{
		KeyAccessToken:  []byte(t.AccessToken),
		KeyRefreshToken: []byte(t.RefreshToken),
	})
	if err != nil {
		return err
	}
	s.log.Debug(ctx, "tokens stored", "access_expired", IsTokenExpired(t.AccessToken))
	return nil
}

// ClearTokens removes tokens and user data. Clearing an empty store is not
// an error.
func (s *Store) ClearTokens(ctx context.Context) error {
	if err := s.repo.DeleteMany(ctx, KeyAccessToken, KeyRefreshToken, KeyUserData); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	s.log.Debug(ctx, "tokens cleared")
	return nil
}

// Purge deletes every entry of the vault, the passphrase salt included.
func (s *Store) Purge(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("purge vault: %w", err)
	}
	s.log.Info(ctx, "vault purged")
	return nil
}

// Keys lists the names of the stored entries, sorted. Values are not
// decrypted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(items)), nil
}

// GetUserData returns the stored user or nil when absent or corrupt.
func (s *Store) GetUserData(ctx context.Context) *models.User {
	raw := s.read(ctx, KeyUserData)
	if raw == nil {
		return nil
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.log.Warn(ctx, "stored user data is not valid JSON, treating as absent", "error", err)
		return nil
	}
	return &u
}

func (s *Store) SetUserData(ctx context.Context, u *models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%w: encode user: %w", ErrStorageWrite, err)
	}
	return s.write(ctx, map[string][]byte{KeyUserData: raw})
}

// SaveSession writes the token pair and the user in one transaction.
func (s *Store) SaveSession(ctx context.Context, t models.AuthTokens, u *models.User) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%w: encode user: %w", ErrStorageWrite, err)
	}

	return s.write(ctx, map[string][]byte{
		KeyAccessToken:  []byte(t.AccessToken),
		KeyRefreshToken: []byte(t.RefreshToken),
		KeyUserData:     raw,
	})
}
