package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookstore/pkg/domain"
)

// Kind binds a token to the single account operation it authorizes.
type Kind string

const (
	KindConfirmEmail  Kind = "confirm-email"
	KindPasswordReset Kind = "password-reset"
)

const (
	// DefaultTTL is the default lifetime for account security tokens.
	DefaultTTL = 24 * time.Hour
	// DefaultLeeway is clock skew tolerance for token validation.
	DefaultLeeway = 15 * time.Second
)

var (
	ErrInvalidToken = errors.New("token: invalid or expired token")
	ErrWrongPurpose = errors.New("token: token issued for a different purpose")
)

// Generator issues opaque security tokens for account operations.
type Generator interface {
	Generate(ctx context.Context, kind Kind, user domain.User) (string, error)
}

// Verifier checks a token and returns the user id it was issued for.
type Verifier interface {
	Verify(ctx context.Context, kind Kind, token string) (string, error)
}

// JWTCodec signs and verifies purpose-bound HS256 tokens.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

// NewJWTCodec creates a codec from a shared secret.
func NewJWTCodec(secret string, ttl time.Duration) (*JWTCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTCodec{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: DefaultLeeway,
	}, nil
}

type accountClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Generate issues a token for the user, bound to kind.
func (c *JWTCodec) Generate(_ context.Context, kind Kind, user domain.User) (string, error) {
	if user.ID == "" {
		return "", errors.New("token: user id is required")
	}
	now := time.Now().UTC()
	claims := accountClaims{
		Purpose: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify validates the signature, expiry, and purpose, returning the subject
// user id.
func (c *JWTCodec) Verify(_ context.Context, kind Kind, raw string) (string, error) {
	var claims accountClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithLeeway(c.leeway))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Purpose != string(kind) {
		return "", ErrWrongPurpose
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
