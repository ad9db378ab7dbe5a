package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

const (
	saltKey          = "__oactl_salt__"
	pbkdf2Iterations = 100000
	keyLength        = 32
)

// EncryptedStorage seals every value with AES-256-GCM before it reaches the
// wrapped backend. The key is derived from a passphrase with PBKDF2; the random
// salt lives alongside the data under a reserved key.
type EncryptedStorage struct {
	inner Backend
	aead  cipher.AEAD
}

// NewEncryptedStorage wraps inner. The salt is created on first use.
func NewEncryptedStorage(inner Backend, passphrase string) (*EncryptedStorage, error) {
	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageRead, "failed to create cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageRead, "failed to create GCM", err)
	}
	return &EncryptedStorage{inner: inner, aead: aead}, nil
}

func loadOrCreateSalt(inner Storage) ([]byte, error) {
	encoded, ok, err := inner.GetItem(saltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageCorrupt, "encryption salt is corrupt", err)
		}
		return salt, nil
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageWrite, "failed to generate salt", err)
	}
	if err := inner.SetItem(saltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

func (e *EncryptedStorage) GetItem(key string) (string, bool, error) {
	sealed, ok, err := e.inner.GetItem(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := e.open(sealed)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStorageCorrupt,
			fmt.Sprintf("failed to decrypt %s", key), err).
			WithSuggestion("check OA_PASSPHRASE, or run 'oactl logout' to reset the session")
	}
	return plain, true, nil
}

func (e *EncryptedStorage) SetItem(key, value string) error {
	sealed, err := e.seal(value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to encrypt value", err)
	}
	return e.inner.SetItem(key, sealed)
}

func (e *EncryptedStorage) RemoveItem(key string) error {
	return e.inner.RemoveItem(key)
}

// Close closes the wrapped backend.
func (e *EncryptedStorage) Close() error {
	return e.inner.Close()
}

func (e *EncryptedStorage) seal(plain string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := e.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (e *EncryptedStorage) open(sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	n := e.aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("ciphertext too short")
	}
	plain, err := e.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
