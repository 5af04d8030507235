package auth_test

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-storefront/internal/auth"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestExtractTokenFromRequest(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := auth.ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestExtractTokenFromRequestErrors(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.ExtractTokenFromRequest(req)
	assert.Error(t, err, "missing header")

	req.Header.Set("Authorization", "Token abc")
	_, err = auth.ExtractTokenFromRequest(req)
	assert.Error(t, err, "wrong scheme")
}

func TestExtractUserIDFromJWT(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-42"})

	sub, err := auth.ExtractUserIDFromJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestExtractUserIDFromJWTMissingSubject(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "a@b.c"})

	_, err := auth.ExtractUserIDFromJWT(token)
	assert.Error(t, err)
}

func TestExtractUserIDFromJWTGarbage(t *testing.T) {
	_, err := auth.ExtractUserIDFromJWT("not-a-jwt")
	assert.Error(t, err)

	_, err = auth.ExtractUserIDFromJWT("")
	assert.Error(t, err)
}

func TestUserIDRoundTrip(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	ctx := auth.WithUserID(req.Context(), "user-42")
	assert.Equal(t, "user-42", auth.UserID(ctx))
	assert.Equal(t, "", auth.UserID(req.Context()))
}
