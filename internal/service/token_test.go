package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	sessionID := uuid.New()

	token, err := manager.Issue(sessionID, 58)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, int64(58), claims.CustomerID)
}

func TestTokenManager_Parse_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-one", time.Hour).Issue(uuid.New(), 58)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-two", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokenManager_Parse_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)
	token, err := manager.Issue(uuid.New(), 58)
	require.NoError(t, err)

	_, err = manager.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_Parse_WrongSigningMethod(t *testing.T) {
	// Токен с alg=none не должен проходить проверку.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": uuid.New().String(),
		"cid": 58,
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokenManager_Parse_Garbage(t *testing.T) {
	_, err := NewTokenManager("test-secret", time.Hour).Parse("not-a-token")
	assert.Error(t, err)
}
