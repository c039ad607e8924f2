package crypto

import (
	"errors"
	"fmt"
	"os"

	"github.com/clipkeep/clipkeepd/internal/secure"
)

// ErrKeyFile indicates the on-disk key file exists but is not a usable
// 256-bit key (leftover from an older format, truncated, or corrupted).
var ErrKeyFile = errors.New("encryption key file is present but has the wrong size")

// LoadOrCreateKey reads the encryption key at path, generating and
// persisting a new random key on first run. The file is written with
// 0600 permissions where the platform honors them. A file of the wrong
// length is refused rather than silently regenerated, since overwriting
// it would orphan every envelope already sealed under the old key.
func LoadOrCreateKey(path string) (*secure.SecureKey, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(data) != KeyBytes {
			secure.Shred(data)
			return nil, fmt.Errorf("%w: %s", ErrKeyFile, path)
		}
		key, kerr := secure.NewSecureKey(data)
		if kerr != nil {
			return nil, kerr
		}
		return key, nil

	case os.IsNotExist(err):
		return createKey(path)

	default:
		return nil, fmt.Errorf("reading key file: %w", err)
	}
}

func createKey(path string) (*secure.SecureKey, error) {
	raw, err := RandomBytesRaw(KeyBytes)
	if err != nil {
		return nil, err
	}

	// Write before sealing into the enclave: NewSecureKey wipes raw on
	// success, and we need a stable copy on disk either way.
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		secure.Shred(raw)
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	key, err := secure.NewSecureKey(raw)
	if err != nil {
		return nil, err
	}
	return key, nil
}
