package entitystore

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestCheckTokenExpiry_ExpiredJWTRejected(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})

	err := checkTokenExpiry(tok, testLogger())
	assert.ErrorContains(t, err, "token expired")
}

func TestCheckTokenExpiry_ValidJWTAccepted(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	assert.NoError(t, checkTokenExpiry(tok, testLogger()))
}

func TestCheckTokenExpiry_JWTWithoutExpAccepted(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "svc"})

	assert.NoError(t, checkTokenExpiry(tok, testLogger()))
}

// 不透明トークンはJWTとして解釈できなくてもそのまま通す
func TestCheckTokenExpiry_OpaqueTokenAccepted(t *testing.T) {
	assert.NoError(t, checkTokenExpiry("opaque-api-key-123", testLogger()))
}

func TestCheckTokenExpiry_EmptyTokenAccepted(t *testing.T) {
	assert.NoError(t, checkTokenExpiry("", testLogger()))
}
