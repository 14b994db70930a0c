package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/store"
)

const DefaultTokenTTL = time.Hour

// Claims is the JWT payload.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UserFinder is the slice of the store login needs.
type UserFinder interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Auth struct {
	users  UserFinder
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuth(users UserFinder, secret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login checks the credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (a *Auth) Login(ctx context.Context, in *models.LoginInput) (string, *models.User, error) {
	if err := in.Validate(); err != nil {
		return "", nil, validationFailed(err)
	}
	u, err := a.users.UserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !VerifyPassword(in.Password, u.Password) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := a.IssueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (a *Auth) IssueToken(u *models.User) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature, algorithm and expiry and returns the caller.
func (a *Auth) ParseToken(raw string) (*models.AuthContext, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrUnauthorized
	}
	id, err := models.ParseID(claims.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return &models.AuthContext{UserID: id, Role: claims.Role}, nil
}
