package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	service := NewJWTService("test-secret", 24)

	token, err := service.GenerateToken("admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestJWTServiceRejectsWrongSecret(t *testing.T) {
	service := NewJWTService("test-secret", 24)
	other := NewJWTService("other-secret", 24)

	token, err := service.GenerateToken("admin")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	service := NewJWTService("test-secret", -1)

	token, err := service.GenerateToken("admin")
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTServiceRejectsGarbage(t *testing.T) {
	service := NewJWTService("test-secret", 24)

	_, err := service.ValidateToken("not.a.token")
	assert.Error(t, err)
}
