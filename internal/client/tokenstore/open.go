package tokenstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/gophauth/internal/client/repositories/vault"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/filex"
)

const (
	vaultFileName = "vault.db"
	keyFileName   = "vault.key"

	// KeyKDFSalt holds the argon2 salt in passphrase mode. It is stored
	// unsealed and survives ClearTokens.
	KeyKDFSalt = "kdf_salt"
)

// Open prepares the on-disk store under dataDir. With an empty passphrase the
// AES key lives in a 0600 key file next to the database; otherwise it is
// derived from the passphrase and a per-database salt. The returned closer
// releases the database.
func Open(ctx context.Context, dataDir, passphrase string, opts ...Option) (*Store, io.Closer, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, nil, err
	}

	repo, err := vault.OpenSQLite(ctx, filepath.Join(dir, vaultFileName))
	if err != nil {
		return nil, nil, err
	}

	var key []byte
	if passphrase == "" {
		key, err = cryptox.LoadOrCreateKeyFile(filepath.Join(dir, keyFileName))
	} else {
		key, err = passphraseKey(ctx, repo, passphrase)
	}
	if err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	defer common.WipeByteArray(key)

	aead, err := cryptox.NewAEAD(key)
	if err != nil {
		_ = repo.Close()
		return nil, nil, err
	}

	return New(repo, aead, opts...), repo, nil
}

// OpenMemory returns a store that forgets everything when the process exits.
func OpenMemory(opts ...Option) (*Store, error) {
	aead, err := cryptox.NewAEAD(common.GenerateRandByteArray(cryptox.KeySize))
	if err != nil {
		return nil, err
	}
	return New(vault.NewMemoryRepository(), aead, opts...), nil
}

func passphraseKey(ctx context.Context, repo vault.Repository, passphrase string) ([]byte, error) {
	salt, err := repo.Get(ctx, KeyKDFSalt)
	if err != nil {
		return nil, fmt.Errorf("read kdf salt: %w", err)
	}
	if len(salt) != cryptox.SaltSize {
		salt = common.GenerateRandByteArray(cryptox.SaltSize)
		if err := repo.SetMany(ctx, map[string][]byte{KeyKDFSalt: salt}); err != nil {
			return nil, fmt.Errorf("store kdf salt: %w", err)
		}
	}
	return cryptox.DeriveStorageKey([]byte(passphrase), salt), nil
}
