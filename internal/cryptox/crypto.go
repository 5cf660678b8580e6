// Package cryptox seals small secrets at rest with AES-256-GCM and derives
// storage keys from passphrases with argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the length of the random argon2 salt stored next to the data.
	SaltSize = 16
)

var (
	ErrInvalidKeySize     = errors.New("invalid key size")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Cipher seals and opens values persisted by the token store.
type Cipher interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// DeriveStorageKey stretches a passphrase into a KeySize key.
// The same passphrase and salt always produce the same key.
func DeriveStorageKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// AEAD is the AES-GCM Cipher. Sealed values are laid out as
// nonce || ciphertext, so each value carries its own random nonce.
type AEAD struct {
	aead cipher.AEAD
}

// NewAEAD builds an AEAD from a KeySize key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &AEAD{aead: aesgcm}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (a *AEAD) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return a.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Tampered or truncated input fails authentication.
func (a *AEAD) Open(sealed []byte) ([]byte, error) {
	n := a.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}

	return a.aead.Open(nil, sealed[:n], sealed[n:], nil)
}
