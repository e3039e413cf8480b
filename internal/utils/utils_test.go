package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(63)
	require.NoError(t, err)
	assert.Len(t, id, 63)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(idAlphabet, r), "unexpected rune %q", r)
	}

	other, err := GenerateID(63)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestHashSecretRoundTrip(t *testing.T) {
	hash, err := HashSecret("correct horse")
	require.NoError(t, err)

	salt, key, ok := strings.Cut(hash, "$")
	require.True(t, ok)
	assert.Len(t, salt, pbkdf2SaltSize*2)
	assert.Len(t, key, pbkdf2KeySize*2)

	match, err := VerifySecret(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = VerifySecret(hash, "battery staple")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestVerifySecretMalformed(t *testing.T) {
	for _, encoded := range []string{"", "nodollar", "zz$00", "00$zz", "00$"} {
		_, err := VerifySecret(encoded, "x")
		assert.ErrorIs(t, err, ErrMalformedHash, encoded)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestAdminTokenRoundTrip(t *testing.T) {
	manager := JWTManager{Secret: []byte("secret"), Issuer: "edge"}
	token, ttl, err := manager.IssueAdminToken("example.com", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	claims, err := manager.ParseAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "example.com", claims.Hostname)

	other := JWTManager{Secret: []byte("other")}
	_, err = other.ParseAdminToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminTokenExpired(t *testing.T) {
	manager := JWTManager{Secret: []byte("secret"), TokenTTL: time.Minute}
	token, _, err := manager.IssueAdminToken("example.com", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = manager.ParseAdminToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
