// Package service provides the credential secret encryption envelope.
package service

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/chacha20poly1305"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// CredentialEncryptor seals and opens credential secrets with
// ChaCha20-Poly1305. The additional data binds the ciphertext to its
// credential so a sealed secret cannot be replayed onto another record.
type CredentialEncryptor interface {
	// Seal encrypts the plaintext and returns ciphertext plus the random
	// nonce that must be stored alongside it.
	Seal(plaintext, additionalData []byte) (ciphertext, nonce []byte, err error)

	// Open decrypts and authenticates a sealed secret.
	Open(ciphertext, nonce, additionalData []byte) ([]byte, error)
}

// chachaEncryptor implements CredentialEncryptor using ChaCha20-Poly1305.
type chachaEncryptor struct {
	aead cipher.AEAD
}

// NewCredentialEncryptor creates a CredentialEncryptor from a base64-encoded
// 32-byte key.
func NewCredentialEncryptor(encodedKey string) (CredentialEncryptor, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decode credential data key")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create cipher")
	}
	return &chachaEncryptor{aead: aead}, nil
}

// Seal encrypts with a fresh random nonce per call.
func (e *chachaEncryptor) Seal(plaintext, additionalData []byte) ([]byte, []byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to generate nonce")
	}
	return e.aead.Seal(nil, nonce, plaintext, additionalData), nonce, nil
}

// Open verifies the Poly1305 tag before returning plaintext.
func (e *chachaEncryptor) Open(ciphertext, nonce, additionalData []byte) ([]byte, error) {
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt credential secret")
	}
	return plaintext, nil
}
