package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, VerifyPassword("Sup3rSecret", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("Sup3rSecret"))

	assert.Error(t, ValidatePasswordStrength("Sh0rt"))
	assert.Error(t, ValidatePasswordStrength("alllowercase1"))
	assert.Error(t, ValidatePasswordStrength("ALLUPPERCASE1"))
	assert.Error(t, ValidatePasswordStrength("NoDigitsHere"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("merchant@example.com"))
	assert.True(t, IsValidEmail("  merchant@example.com  "))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("@example.com"))
	assert.False(t, IsValidEmail(""))
}

func TestTokenRoundTrip(t *testing.T) {
	session := UserSession{
		ID:    "user-1",
		Name:  "Merchant",
		Email: "merchant@example.com",
		Role:  "member",
	}

	token, err := GenerateToken(session)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session, claims.User)
	assert.NotEmpty(t, claims.ID, "token must carry a jti for session revocation")
	assert.False(t, claims.User.IsAdmin())

	// Tampered tokens fail validation
	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestDecodeTokenWithoutValidation(t *testing.T) {
	token, err := GenerateToken(UserSession{ID: "user-2", Role: "admin"})
	require.NoError(t, err)

	claims, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.User.ID)
	assert.True(t, claims.User.IsAdmin())
}
