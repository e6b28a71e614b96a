package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateToken(t *testing.T) {
	secret := "test-secret"

	token, err := SignToken(secret, "68b1c2d3e4f5a6b7c8d9e0f1", "jo@example.com", "contractor")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)

	assert.Equal(t, "68b1c2d3e4f5a6b7c8d9e0f1", claims.Subject)
	assert.Equal(t, "jo@example.com", claims.Email)
	assert.Equal(t, "contractor", claims.Role)
	assert.True(t, claims.IsContractor())
	assert.False(t, claims.IsAdmin())
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := SignToken("secret-a", "id", "a@b.com", "customer")
	require.NoError(t, err)

	_, err = ValidateToken("secret-b", token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("secret", "not.a.token")
	assert.Error(t, err)
}

func TestSignTokenNoSecret(t *testing.T) {
	_, err := SignToken("", "id", "a@b.com", "customer")
	assert.Error(t, err)
}

func TestIsPasswordStrong(t *testing.T) {
	assert.True(t, IsPasswordStrong("Str0ng!pass"))
	assert.False(t, IsPasswordStrong("short1!"))
	assert.False(t, IsPasswordStrong("alllowercase1!"))
	assert.False(t, IsPasswordStrong("NoDigits!!"))
	assert.False(t, IsPasswordStrong("NoSpecial123"))
}

func TestStringTrim(t *testing.T) {
	assert.Equal(t, "abc", StringTrim("  abc  "))
	assert.Equal(t, "abc", StringTrim("\"abc\""))
	assert.Equal(t, "abc", StringTrim("'abc'"))
	assert.Equal(t, "", StringTrim("   "))
}
