package crypto

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/clipkeep/clipkeepd/internal/secure"
)

var (
	// ErrInvalidKeySize indicates the key is not 32 bytes (ChaCha20-Poly1305).
	ErrInvalidKeySize = errors.New("key must be 32 bytes for ChaCha20-Poly1305")
	// ErrEncryptionFailed indicates encryption failed.
	ErrEncryptionFailed = errors.New("encryption failed")
	// ErrDecryptionFailed indicates decryption failed (likely wrong key or tampered data).
	ErrDecryptionFailed = errors.New("decryption failed: data may be corrupted or key is wrong")
	// ErrEnvelopeTooShort indicates the envelope is shorter than the nonce.
	ErrEnvelopeTooShort = errors.New("envelope too short")
)

// Envelope seals and opens clipboard payloads with ChaCha20-Poly1305,
// an AEAD construction well suited to small-to-medium blobs. The wire
// format is exactly nonce(12 bytes) || ciphertext_and_tag.
type Envelope struct {
	key *secure.SecureKey
}

// NewEnvelope wraps a loaded key for sealing and opening blobs.
func NewEnvelope(key *secure.SecureKey) *Envelope {
	return &Envelope{key: key}
}

// Encrypt seals plaintext under a freshly drawn nonce. Two calls with the
// same plaintext always produce distinct envelopes, since a new random
// nonce is drawn each time. Fails only on RNG or cipher failure.
func (e *Envelope) Encrypt(plaintext []byte) ([]byte, error) {
	if e.key == nil || e.key.IsDestroyed() {
		return nil, secure.ErrKeyDestroyed
	}

	nonceBuf, err := GenerateNonce()
	if err != nil {
		return nil, err
	}
	defer nonceBuf.Destroy()

	var envelope []byte
	err = e.key.Use(func(keyBytes []byte) error {
		if len(keyBytes) != KeyBytes {
			return ErrInvalidKeySize
		}

		aead, err := chacha20poly1305.New(keyBytes)
		if err != nil {
			return err
		}

		var nonce []byte
		if err := nonceBuf.Use(func(n []byte) error {
			nonce = make([]byte, len(n))
			copy(nonce, n)
			return nil
		}); err != nil {
			return err
		}

		// envelope = nonce || ciphertext || tag
		envelope = aead.Seal(nonce, nonce, plaintext, nil)
		return nil
	})

	if err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, ErrEncryptionFailed
	}

	return envelope, nil
}

// Decrypt opens an envelope produced by Encrypt. Fails with
// ErrEnvelopeTooShort if the input is shorter than the nonce, and with
// ErrDecryptionFailed if authentication fails.
func (e *Envelope) Decrypt(envelope []byte) ([]byte, error) {
	if e.key == nil || e.key.IsDestroyed() {
		return nil, secure.ErrKeyDestroyed
	}

	if len(envelope) < NonceBytes {
		return nil, ErrEnvelopeTooShort
	}

	var plaintext []byte
	err := e.key.Use(func(keyBytes []byte) error {
		if len(keyBytes) != KeyBytes {
			return ErrInvalidKeySize
		}

		aead, err := chacha20poly1305.New(keyBytes)
		if err != nil {
			return err
		}

		nonce := envelope[:NonceBytes]
		ciphertext := envelope[NonceBytes:]

		plaintext, err = aead.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return ErrDecryptionFailed
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return plaintext, nil
}
