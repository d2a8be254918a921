package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// ErrCiphertextTooShort is returned when a sealed value is shorter than its nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts secrets bound to an owner. The same owner must be supplied to Open.
type Sealer interface {
	Seal(plaintext, owner []byte) ([]byte, error)
	Open(sealed, owner []byte) ([]byte, error)
}

// AESSealer uses AES-256-GCM. The owner is passed as additional authenticated data,
// so a secret copied onto another account's row fails to open.
type AESSealer struct {
	aead cipher.AEAD
}

// NewAESGCMFromBase64Key creates an AESSealer from a base64-encoded 32-byte key.
func NewAESGCMFromBase64Key(encodedKey string) (*AESSealer, error) {
	if encodedKey == "" {
		return nil, errors.New("encryption key is empty")
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESSealer{aead: aead}, nil
}

// Seal encrypts plaintext and prepends a random nonce.
func (s *AESSealer) Seal(plaintext, owner []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, owner), nil
}

// Open decrypts a value produced by Seal for the same owner.
func (s *AESSealer) Open(sealed, owner []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], owner)
}
