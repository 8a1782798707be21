// Package secrets implements the local secret store used to seal the default
// archive password.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bnema/zerowrap"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeyFileName is the secret key file stored in the data directory.
const KeyFileName = "secret.key"

// KeyFileStore implements out.Cipher with XChaCha20-Poly1305 and a 32-byte key
// file created on first use.
type KeyFileStore struct {
	keyPath string
	log     zerowrap.Logger
}

// NewKeyFileStore creates a store keeping its key in dataDir.
func NewKeyFileStore(dataDir string, log zerowrap.Logger) *KeyFileStore {
	return &KeyFileStore{
		keyPath: filepath.Join(dataDir, KeyFileName),
		log:     log,
	}
}

// KeyPath returns the location of the key file.
func (s *KeyFileStore) KeyPath() string {
	return s.keyPath
}

// Encrypt seals plaintext and returns base64 text. The key is created if absent.
func (s *KeyFileStore) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	key, err := s.loadOrCreateKey()
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens base64 ciphertext. It returns "" when the key is missing or the
// ciphertext is corrupted or was sealed with another key.
func (s *KeyFileStore) Decrypt(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}

	log := s.log.With().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "secrets").
		Logger()

	key, err := s.readKey()
	if err != nil {
		log.Warn().Err(err).Msg("secret key unavailable")
		return ""
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		log.Warn().Err(err).Msg("stored secret is not valid base64")
		return ""
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil || len(data) < aead.NonceSize() {
		log.Warn().Msg("stored secret is malformed")
		return ""
	}

	nonce, sealed := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		log.Warn().Msg("stored secret could not be decrypted")
		return ""
	}
	return string(plaintext)
}

func (s *KeyFileStore) readKey() ([]byte, error) {
	key, err := os.ReadFile(s.keyPath)
	if err != nil {
		return nil, err
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return key, nil
}

func (s *KeyFileStore) loadOrCreateKey() ([]byte, error) {
	key, err := s.readKey()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.keyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}

	f, err := os.OpenFile(s.keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// Another process created it first.
			return s.readKey()
		}
		return nil, fmt.Errorf("failed to create secret key: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		_ = f.Close()
		_ = os.Remove(s.keyPath)
		return nil, fmt.Errorf("failed to write secret key: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close secret key: %w", err)
	}

	s.log.Info().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "secrets").
		Str("path", s.keyPath).
		Msg("secret key created")

	return key, nil
}
