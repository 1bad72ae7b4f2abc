package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"biomarket/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller's account in the subject and its roles.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Tokens verifies and issues HS256 bearer tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Parse validates a token and returns the principal it names.
func (t *Tokens) Parse(token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("invalid token: %w", errors.Join(domain.ErrUnauthenticated, err))
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Principal{}, fmt.Errorf("token has no subject: %w", domain.ErrUnauthenticated)
	}
	return domain.Principal{Account: claims.Subject, Roles: claims.Roles}, nil
}

// Issue signs a token for p that expires after ttl.
func (t *Tokens) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	if !p.Authenticated() {
		return "", errors.New("account required")
	}
	now := t.now()
	claims := Claims{
		Roles: p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Account,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}
