// Package crypto implements the PHI encryption collaborator: AES-256-GCM
// with a PBKDF2-derived key. The ciphertext format is
// base64url(nonce || sealed) and the service exposes the identifier of the
// key used, so records can name which key encrypted their fields.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength     = 32
	kdfIterations = 100000
)

// EncryptionError reports a failure inside the encryption layer. It aborts
// processing of the single event it occurred on.
type EncryptionError struct {
	Op  string
	Err error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encryption %s failed: %v", e.Op, e.Err)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

// Service encrypts and decrypts PHI strings. Safe for concurrent use.
type Service struct {
	mu    sync.RWMutex
	aead  cipher.AEAD
	keyID string
}

// NewService derives an AES-256 key from secret and salt and returns a
// ready-to-use encryption service identified by keyID.
func NewService(secret, salt, keyID string) (*Service, error) {
	aead, err := deriveAEAD(secret, salt)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead, keyID: keyID}, nil
}

func deriveAEAD(secret, salt string) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(secret), []byte(salt), kdfIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &EncryptionError{Op: "key derivation", Err: err}
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &EncryptionError{Op: "key derivation", Err: err}
	}
	return aead, nil
}

// KeyID returns the identifier of the current encryption key.
func (s *Service) KeyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyID
}

// Encrypt seals plaintext PHI. Empty input passes through unchanged.
func (s *Service) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return plaintext, nil
	}

	s.mu.RLock()
	aead := s.aead
	s.mu.RUnlock()

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", &EncryptionError{Op: "encrypt", Err: err}
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens ciphertext produced by Encrypt. Empty input passes through
// unchanged.
func (s *Service) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return ciphertext, nil
	}

	s.mu.RLock()
	aead := s.aead
	s.mu.RUnlock()

	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &EncryptionError{Op: "decrypt", Err: err}
	}
	if len(raw) < aead.NonceSize() {
		return "", &EncryptionError{Op: "decrypt", Err: fmt.Errorf("ciphertext too short")}
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &EncryptionError{Op: "decrypt", Err: err}
	}
	return string(plain), nil
}

// Rotate switches the service to a new key derived from the given material.
// Previously encrypted data needs re-encryption with the new key.
func (s *Service) Rotate(secret, salt, keyID string) error {
	aead, err := deriveAEAD(secret, salt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.aead = aead
	s.keyID = keyID
	s.mu.Unlock()
	return nil
}
