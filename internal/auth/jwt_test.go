package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMintAndVerify(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec([]byte("super-secret"), 30*24*time.Hour)

	tok, expires, err := codec.Mint("user-123")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expires, 5*time.Second)

	userID, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestMintIsDeterministic(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	codec := NewTokenCodec([]byte("k"), time.Hour).WithClock(fixedClock(issued))

	a, expA, err := codec.Mint("u1")
	require.NoError(t, err)
	b, expB, err := codec.Mint("u1")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, expA, expB)
	assert.Equal(t, issued.Add(time.Hour), expA)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	codec := NewTokenCodec([]byte("secret"), 30*24*time.Hour).WithClock(fixedClock(issued))

	tok, _, err := codec.Mint("u1")
	require.NoError(t, err)

	stillValid := codec.WithClock(fixedClock(issued.Add(29 * 24 * time.Hour)))
	_, err = stillValid.Verify(tok)
	require.NoError(t, err)

	expired := codec.WithClock(fixedClock(issued.Add(31 * 24 * time.Hour)))
	_, err = expired.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenCodec([]byte("right-secret"), time.Hour).Mint("u2")
	require.NoError(t, err)

	_, err = NewTokenCodec([]byte("wrong-secret"), time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec([]byte("k"), time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := codec.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec([]byte("k"), time.Hour)
	tok, _, err := codec.Mint("")
	require.NoError(t, err)

	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMint_EmptyKey(t *testing.T) {
	t.Parallel()

	_, _, err := NewTokenCodec(nil, time.Hour).Mint("user-123")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
