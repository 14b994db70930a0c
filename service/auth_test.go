package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinaaaquil/bookshelf/models"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, VerifyPassword("hunter22", hash))
	assert.False(t, VerifyPassword("hunter23", hash))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	u, _ := f.user(t, "login")
	auth := NewAuth(f.store, "test-secret", time.Hour)

	token, got, err := auth.Login(context.Background(), &models.LoginInput{Email: "login@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	ac, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, ac.UserID)
	assert.Equal(t, models.RoleUser, ac.Role)

	_, got, err = auth.Login(context.Background(), &models.LoginInput{Email: "  Login@Example.COM ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.user(t, "login")
	auth := NewAuth(f.store, "test-secret", time.Hour)

	_, _, err := auth.Login(context.Background(), &models.LoginInput{Email: "login@example.com", Password: "wrong-one"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login(context.Background(), &models.LoginInput{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login(context.Background(), &models.LoginInput{Email: "login@example.com"})
	requireValidation(t, err, "password")
}

func TestParseToken_Rejects(t *testing.T) {
	auth := NewAuth(nil, "test-secret", time.Hour)
	user := &models.User{Role: models.RoleAdmin}

	t.Run("expired", func(t *testing.T) {
		past := NewAuth(nil, "test-secret", time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.IssueToken(user)
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewAuth(nil, "other-secret", time.Hour).IssueToken(user)
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{UserID: user.ID.Hex(), Role: user.Role, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestNewAuth_DefaultTTL(t *testing.T) {
	auth := NewAuth(nil, "s", 0)
	assert.Equal(t, DefaultTokenTTL, auth.ttl)
}
