// Package auth is the identity oracle: it turns bearer tokens into user IDs.
package auth

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier resolves a bearer credential to a stable user identifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTService issues and validates HS256 tokens whose subject is the user ID.
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
}

// NewJWTService creates a new JWTService.
func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	return &JWTService{secretKey: []byte(secretKey), ttl: ttl}
}

var _ Verifier = (*JWTService)(nil)

// GenerateToken issues a token for the user.
func (s *JWTService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Verify validates the token and returns its subject.
func (s *JWTService) Verify(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperr.New(apperr.ErrUnauthenticated, "missing bearer token")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", apperr.Wrap(apperr.ErrUnauthenticated, err, "invalid bearer token")
	}
	if claims.Subject == "" {
		return "", apperr.New(apperr.ErrUnauthenticated, "token has no subject")
	}
	return claims.Subject, nil
}

type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user ID from the context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}
