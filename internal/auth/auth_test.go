package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newClaims(subject string, ttl time.Duration, roles ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: roles,
	}
}

func TestValidateToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := NewKeys(&priv.PublicKey)
	require.NoError(t, err)

	claims, err := keys.ValidateToken(signToken(t, priv, newClaims("user-1", time.Hour, RoleUser)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.HasRole(RoleAdmin))

	_, err = keys.ValidateToken(signToken(t, priv, newClaims("user-1", -time.Hour)))
	assert.Error(t, err, "expired token")

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = keys.ValidateToken(signToken(t, other, newClaims("user-1", time.Hour)))
	assert.Error(t, err, "foreign signature")

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims("user-1", time.Hour)).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = keys.ValidateToken(hs)
	assert.Error(t, err, "unexpected algorithm")
}

func TestNewKeysNil(t *testing.T) {
	_, err := NewKeys(nil)
	assert.Error(t, err)
}

func TestLoadKeys(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pubkey.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	keys, err := LoadKeys(path)
	require.NoError(t, err)
	_, err = keys.ValidateToken(signToken(t, priv, newClaims("user-9", time.Hour)))
	assert.NoError(t, err)

	_, err = LoadKeys(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
	assert.Equal(t, "", nilSession.UserID())
	assert.False(t, nilSession.IsAdmin())

	assert.False(t, NewSession("", newClaims("u", time.Hour)).Authenticated())

	admin := NewSession("tok", newClaims("admin-1", time.Hour, RoleAdmin))
	assert.True(t, admin.Authenticated())
	assert.Equal(t, "admin-1", admin.UserID())
	assert.True(t, admin.IsAdmin())
}
