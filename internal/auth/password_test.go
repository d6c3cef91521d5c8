package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotContains(t, hash, "correct horse", "hash must not embed the plaintext")

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong horse battery staple", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestVerifyPasswordCorruptHash(t *testing.T) {
	// corrupt hashes fail verification, they do not blow up
	assert.False(t, VerifyPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("anything", ""))
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same password")
	require.NoError(t, err)
	h2, err := HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "two hashes of the same password must differ by salt")
}
