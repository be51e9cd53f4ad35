package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestJWT_ClientToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret", time.Hour)
	id := uuid.New()

	tok, err := j.GenerateClientToken(id)
	require.NoError(t, err)
	got, err := j.ParseClientToken(tok)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestJWT_WithoutExpiry(t *testing.T) {
	j := NewJWT("secret", 0)
	id := uuid.New()

	tok, err := j.GenerateClientToken(id)
	require.NoError(t, err)
	got, err := j.ParseClientToken(tok)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := NewJWT("secret", time.Hour).GenerateClientToken(uuid.New())
	require.NoError(t, err)

	_, err = NewJWT("other", time.Hour).ParseClientToken(tok)
	require.Error(t, err)
}

func TestJWT_Rejects(t *testing.T) {
	t.Parallel()

	sign := func(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage",
			token: func(t *testing.T) string {
				return "not-a-token"
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("secret"), Claims{
					RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(past)},
					ClientID:         uuid.New(),
					TokenType:        typeControl,
				})
			},
		},
		{
			name: "wrong type",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("secret"), Claims{
					ClientID:  uuid.New(),
					TokenType: "access",
				})
			},
		},
		{
			name: "unsigned",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{
					ClientID:  uuid.New(),
					TokenType: typeControl,
				})
			},
		},
	}

	j := NewJWT("secret", time.Hour)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := j.ParseClientToken(tt.token(t))
			require.Error(t, err)
		})
	}
}
