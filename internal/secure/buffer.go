// Package secure provides memory-safe primitives for handling clipkeepd's
// encryption key and the nonces sealed alongside it. Anything that touches
// key material must go through SecureBuffer or SecureKey - never a raw
// []byte held outside one of their callbacks.
package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// MaxBufferSize bounds a single SecureBuffer allocation. clipkeepd only
// ever allocates one of these per AEAD nonce (12 bytes), so this ceiling
// exists purely to reject a programming error, not a realistic payload.
const MaxBufferSize = 100 * 1024 * 1024 // 100MB maximum

var (
	// ErrBufferDestroyed indicates the buffer has been securely wiped.
	ErrBufferDestroyed = errors.New("secure buffer has been destroyed")
	// ErrBufferTooLarge indicates the buffer exceeds maximum allowed size.
	ErrBufferTooLarge = errors.New("buffer exceeds maximum size (100MB)")
)

// SecureBuffer wraps memguard.LockedBuffer for secure memory handling.
// The underlying memory is:
// - Locked in RAM (cannot be swapped to disk)
// - Protected with guard pages (detect buffer overflows)
// - Securely zeroed on destruction
//
// clipkeepd's own use is narrow: crypto.GenerateNonce draws one of these
// per Envelope.Encrypt call to hold the random nonce until it is copied
// into the AEAD seal call.
type SecureBuffer struct {
	buf       *memguard.LockedBuffer
	destroyed bool
	mu        sync.RWMutex
}

// NewSecureBuffer creates a new secure buffer of the given size.
// The buffer is zeroed, memory-locked, and protected with guard pages.
// IMPORTANT: Always call Destroy() when done, preferably via defer.
func NewSecureBuffer(size int) (*SecureBuffer, error) {
	if size <= 0 {
		return nil, errors.New("buffer size must be positive")
	}
	if size > MaxBufferSize {
		return nil, ErrBufferTooLarge
	}

	buf := memguard.NewBuffer(size)
	if buf == nil {
		return nil, errors.New("failed to allocate secure buffer")
	}

	return &SecureBuffer{buf: buf}, nil
}

// Bytes returns the underlying byte slice.
// WARNING: Do not store this reference beyond the buffer's lifetime.
// The data will be zeroed when Destroy() is called.
func (s *SecureBuffer) Bytes() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrBufferDestroyed
	}

	return s.buf.Bytes(), nil
}

// Size returns the size of the buffer in bytes.
func (s *SecureBuffer) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.buf == nil {
		return 0
	}

	return s.buf.Size()
}

// Wipe securely zeros the buffer contents without destroying it.
// The buffer can still be used after wiping.
func (s *SecureBuffer) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrBufferDestroyed
	}

	s.buf.Wipe()
	return nil
}

// Destroy securely wipes and deallocates the buffer.
// After calling Destroy, the buffer cannot be used.
// Safe to call multiple times.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || s.buf == nil {
		return
	}

	s.buf.Destroy()
	s.destroyed = true
	s.buf = nil
}

// IsDestroyed returns whether the buffer has been destroyed.
func (s *SecureBuffer) IsDestroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

// Use provides safe access to the buffer contents via a callback.
// This is the preferred way to access buffer data as it ensures
// the buffer isn't destroyed during access.
func (s *SecureBuffer) Use(fn func(data []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrBufferDestroyed
	}

	return fn(s.buf.Bytes())
}

// MutableUse provides mutable access to the buffer contents via a callback.
// Use this when you need to modify the buffer contents in place.
func (s *SecureBuffer) MutableUse(fn func(data []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrBufferDestroyed
	}

	return fn(s.buf.Bytes())
}
