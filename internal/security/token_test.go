package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := GenerateAdminToken("top-secret", "root", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAdminToken(token, "top-secret")
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Name)
	assert.Equal(t, "root", claims.Subject)
}

func TestParseAdminTokenWrongSecret(t *testing.T) {
	token, err := GenerateAdminToken("top-secret", "root", time.Hour)
	require.NoError(t, err)

	_, err = ParseAdminToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseAdminTokenExpired(t *testing.T) {
	token, err := GenerateAdminToken("top-secret", "root", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAdminToken(token, "top-secret")
	assert.Error(t, err)
}

func TestParseAdminTokenGarbage(t *testing.T) {
	_, err := ParseAdminToken("not.a.jwt", "top-secret")
	assert.Error(t, err)
}
