package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-123", time.Hour)

	token, err := svc.GenerateToken("user-42", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-one-that-is-long-enough-xxxx", time.Hour)
	verifier := NewAuthService("secret-two-that-is-long-enough-yyyy", time.Hour)

	token, err := issuer.GenerateToken("user-42", "user@example.com")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-123", -time.Minute)

	token, err := svc.GenerateToken("user-42", "user@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService("test-secret-that-is-long-enough-123", time.Hour)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
