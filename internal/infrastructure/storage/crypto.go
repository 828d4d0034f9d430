package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
)

const (
	nonceLen = 12
	keyLen   = 32
)

// deriveKey maps a device secret to a fixed-size cipher key via SHA-256.
// Derivation is deterministic and unsalted so the same secret reopens an
// existing store; production deployments should source the secret itself
// from a hardware-backed keystore.
func deriveKey(secret []byte) [keyLen]byte {
	return sha256.Sum256(secret)
}

func newAEAD(key [keyLen]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// encrypt seals plaintext under a freshly generated random nonce and encodes
// nonce||ciphertext as one opaque base64 blob.
func encrypt(aead cipher.AEAD, plaintext []byte) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decrypt reverses encrypt. Any bit-level corruption of the blob fails
// authentication and is surfaced as a crypto error, never as partial data.
func decrypt(aead cipher.AEAD, encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.NewCryptoError("payload blob is not valid base64").WithCause(err)
	}
	if len(raw) < nonceLen {
		return nil, errors.NewCryptoError("payload blob too short")
	}
	nonce, ciphertext := raw[:nonceLen], raw[nonceLen:]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.NewCryptoError("payload failed authentication").WithCause(err)
	}
	return plain, nil
}
