// Package crypto implements the encryption envelope used to seal
// sensitive clipboard payloads at rest: key lifecycle, nonce generation,
// and AEAD encrypt/decrypt.
package crypto

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/clipkeep/clipkeepd/internal/secure"
)

const (
	// NonceBytes is the nonce size for ChaCha20-Poly1305 (96 bits).
	NonceBytes = 12
	// KeyBytes is the symmetric key size (256 bits).
	KeyBytes = 32
)

// ErrRandomGeneration indicates a failure to generate random bytes.
var ErrRandomGeneration = errors.New("failed to generate cryptographically secure random bytes")

// RandomBytesRaw generates cryptographically secure random bytes.
// WARNING: the caller is responsible for zeroing the returned slice.
func RandomBytesRaw(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("size must be positive")
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		return nil, ErrRandomGeneration
	}

	return data, nil
}

// GenerateNonce generates a random nonce for the envelope's AEAD.
// IMPORTANT: caller must call Destroy() on the returned buffer.
func GenerateNonce() (*secure.SecureBuffer, error) {
	buf, err := secure.NewSecureBuffer(NonceBytes)
	if err != nil {
		return nil, err
	}

	err = buf.MutableUse(func(data []byte) error {
		_, err := io.ReadFull(rand.Reader, data)
		return err
	})
	if err != nil {
		buf.Destroy()
		return nil, ErrRandomGeneration
	}

	return buf, nil
}
