package auth

import (
	"testing"

	"ThqRel/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret", 1)

	token, err := GenerateToken(42, "nova", model.RoleModerator)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "nova", claims.Username)
	assert.Equal(t, model.RoleModerator, claims.Role)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	InitJWT("test-secret", 1)

	_, err := ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}
