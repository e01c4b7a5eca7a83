package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewDeviceService(nil, "test-secret")

	token, err := svc.generateJWT("dev-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	deviceID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "dev-42", deviceID)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	issuer := NewDeviceService(nil, "secret-a")
	verifier := NewDeviceService(nil, "secret-b")

	token, err := issuer.generateJWT("dev-42")
	require.NoError(t, err)

	_, err = verifier.ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	svc := NewDeviceService(nil, "test-secret")
	_, err := svc.ValidateJWT("not.a.token")
	assert.Error(t, err)
}
