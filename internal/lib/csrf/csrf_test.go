package csrf

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test_csrf_secret_1234567890"

func TestMaker_IssueAndVerify(t *testing.T) {
	m := NewMaker(secret, time.Hour)

	tok, expires, err := m.Issue("client-hash")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Second)

	assert.NoError(t, m.Verify(tok, "client-hash"))
}

func TestMaker_Verify_Invalid(t *testing.T) {
	m := NewMaker(secret, time.Hour)
	valid, _, err := m.Issue("client-hash")
	require.NoError(t, err)

	otherPurpose, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose: "something-else",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		client string
	}{
		{name: "empty token", token: "", client: "client-hash"},
		{name: "malformed token", token: "invalid.token.here", client: "client-hash"},
		{name: "other client", token: valid, client: "another-client"},
		{name: "other purpose", token: otherPurpose, client: "client-hash"},
		{name: "tampered", token: valid + "x", client: "client-hash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, m.Verify(tt.token, tt.client), ErrInvalidToken)
		})
	}
}

func TestMaker_Verify_Expired(t *testing.T) {
	m := NewMaker(secret, time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	tok, _, err := m.Issue("client-hash")
	require.NoError(t, err)

	m.now = time.Now
	assert.ErrorIs(t, m.Verify(tok, "client-hash"), ErrInvalidToken)
}

func TestMaker_Verify_OtherSecret(t *testing.T) {
	tok, _, err := NewMaker(secret, time.Hour).Issue("")
	require.NoError(t, err)

	assert.ErrorIs(t, NewMaker("other", time.Hour).Verify(tok, ""), ErrInvalidToken)
}
