package apikey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifier(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret-admin-key"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewVerifier(string(hashed))
	assert.True(t, v.Valid("s3cret-admin-key"))
	assert.False(t, v.Valid("wrong"))
	assert.False(t, v.Valid(""))
}

func TestVerifier_EmptyHashRejectsEverything(t *testing.T) {
	v := NewVerifier("")
	assert.False(t, v.Valid("anything"))
}

func TestHash(t *testing.T) {
	hashed, err := Hash("key")
	require.NoError(t, err)
	assert.True(t, NewVerifier(hashed).Valid("key"))
}
