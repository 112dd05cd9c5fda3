package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherHashAndCheck(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, h.Check(hash, "secret1!"))
	assert.False(t, h.Check(hash, "wrong"))
	assert.False(t, h.Check("not-a-hash", "secret1!"))
}

func TestHasherDistinctSalts(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("secret1!")
	require.NoError(t, err)
	second, err := h.Hash("secret1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Check(first, "secret1!"))
	assert.True(t, h.Check(second, "secret1!"))
}

func TestNewHasherClampsCost(t *testing.T) {
	h := NewHasher(99)
	assert.Equal(t, DefaultBcryptCost, h.cost)

	h = NewHasher(-1)
	assert.Equal(t, DefaultBcryptCost, h.cost)

	h = NewHasher(bcrypt.MinCost)
	assert.Equal(t, bcrypt.MinCost, h.cost)
}
