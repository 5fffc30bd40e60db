package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateAndValidate(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateAccessToken(userID, "test-secret", time.Hour, "live-rooms")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token, "test-secret")
	assert.NoError(t, err)

	parsed, err := claims.UserID()
	assert.NoError(t, err)
	assert.Equal(t, userID, parsed)
	assert.Equal(t, "live-rooms", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), "test-secret", time.Hour, "live-rooms")
	assert.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(uuid.New(), "test-secret", -time.Minute, "live-rooms")
	assert.NoError(t, err)

	_, err = ValidateToken(token, "test-secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not-a-jwt", "test-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
