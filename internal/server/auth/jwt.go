// Package auth holds the credential primitives of the storefront: password
// hashing, signed session tokens, email verification codes and the errors
// the request gates report.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenValidity is how long an issued token stays valid.
const DefaultTokenValidity = 24 * time.Hour

// Role is the privilege level carried in a token.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RoleFor maps an account kind to the role its tokens carry.
func RoleFor(kind models.AccountKind) Role {
	if kind == models.KindAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Claims is the token payload. Subject, IssuedAt, ExpiresAt and ID (a fresh
// UUID per token) come from the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Identity is what a token is issued for.
type Identity struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	Role      Role
}

// TokenService issues and verifies HS256 tokens with a fixed secret.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

type TokenOption func(*TokenService)

// WithTokenClock replaces time.Now for issuing and verifying.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService panics on an empty secret: a process that cannot sign
// tokens must not start. A non-positive validity falls back to
// DefaultTokenValidity.
func NewTokenService(secret []byte, validity time.Duration, opts ...TokenOption) *TokenService {
	if len(secret) == 0 {
		panic("auth: empty token secret")
	}
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	s := &TokenService{secret: secret, validity: validity, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for id.
func (s *TokenService) Issue(id Identity) (string, error) {
	if !id.Role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", id.Role)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
			ID:        uuid.NewString(),
		},
		Email:     id.Email,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Role:      id.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// yields common.ErrInvalidToken. Claims are never returned with an error.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
