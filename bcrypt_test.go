package newsletter_test

import (
	"testing"

	newsletter "github.com/goliatone/go-newsletter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		hash, err := newsletter.HashPassword("securePassword123!")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)

		assert.NoError(t, newsletter.ComparePasswordAndHash("securePassword123!", hash))
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := newsletter.HashPassword("")
		assert.ErrorIs(t, err, newsletter.ErrNoEmptyString)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		a, err := newsletter.HashPassword("same input")
		require.NoError(t, err)
		b, err := newsletter.HashPassword("same input")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := newsletter.HashPassword("testPassword123!")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, newsletter.ComparePasswordAndHash("testPassword123!", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.Error(t, newsletter.ComparePasswordAndHash("nope", hash))
	})

	t.Run("garbage hash", func(t *testing.T) {
		assert.Error(t, newsletter.ComparePasswordAndHash("testPassword123!", "not-a-hash"))
	})
}

func TestCompareAgainstDummyHash(t *testing.T) {
	t.Run("always reports a mismatch", func(t *testing.T) {
		assert.ErrorIs(t, newsletter.CompareAgainstDummyHash("anything at all"),
			newsletter.ErrMismatchedHashAndPassword)
	})

	t.Run("empty input still mismatches", func(t *testing.T) {
		assert.ErrorIs(t, newsletter.CompareAgainstDummyHash(""),
			newsletter.ErrMismatchedHashAndPassword)
	})
}
