package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkeep/clipkeepd/internal/secure"
)

func newTestEnvelope(t *testing.T) *Envelope {
	t.Helper()
	raw, err := RandomBytesRaw(KeyBytes)
	require.NoError(t, err)
	key, err := secure.NewSecureKey(raw)
	require.NoError(t, err)
	t.Cleanup(key.Destroy)
	return NewEnvelope(key)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	env := newTestEnvelope(t)

	plaintexts := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("hello, clipboard"),
		make([]byte, 10*1024),
	}

	for _, p := range plaintexts {
		sealed, err := env.Encrypt(p)
		require.NoError(t, err)

		opened, err := env.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, p, opened)
	}
}

func TestEncryptProducesDistinctEnvelopes(t *testing.T) {
	env := newTestEnvelope(t)
	plaintext := []byte("the same secret every time")

	a, err := env.Encrypt(plaintext)
	require.NoError(t, err)
	b, err := env.Encrypt(plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two encryptions of the same plaintext must differ")
}

func TestDecryptEmptyFails(t *testing.T) {
	env := newTestEnvelope(t)
	_, err := env.Decrypt(nil)
	assert.ErrorIs(t, err, ErrEnvelopeTooShort)
}

func TestDecryptShortEnvelopeFails(t *testing.T) {
	env := newTestEnvelope(t)
	_, err := env.Decrypt(make([]byte, NonceBytes-1))
	assert.ErrorIs(t, err, ErrEnvelopeTooShort)
}

func TestDecryptTamperedEnvelopeFails(t *testing.T) {
	env := newTestEnvelope(t)

	sealed, err := env.Encrypt([]byte("authenticate me"))
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = env.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	envA := newTestEnvelope(t)
	envB := newTestEnvelope(t)

	sealed, err := envA.Encrypt([]byte("for A's eyes only"))
	require.NoError(t, err)

	_, err = envB.Decrypt(sealed)
	assert.Error(t, err)
}
