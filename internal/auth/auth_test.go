package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "secret1"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	tok, err := issuer.Issue(Identity{ID: "u-1", Email: "ana@x.com", Role: "student"})
	require.NoError(t, err)

	id, err := issuer.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "u-1", Email: "ana@x.com", Role: "student"}, id)
}

func TestValidateToken_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)
	tok, err := issuer.Issue(Identity{ID: "u-1"})
	require.NoError(t, err)

	other := NewTokenIssuer("other-secret", time.Minute)
	_, err = other.ValidateToken(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken), "wrong secret")

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.ValidateToken(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken), "expired")

	_, err = issuer.ValidateToken("garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
