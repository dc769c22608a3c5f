// Package auth issues and verifies the bearer identity tokens handed out by the API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiry is how long an issued token stays valid.
const DefaultExpiry = time.Hour

var (
	// ErrMissingCredential is returned when no token was presented at all.
	ErrMissingCredential = errors.New("token is missing")

	// ErrInvalidCredential is returned for bad signatures, malformed or expired tokens.
	ErrInvalidCredential = errors.New("token is invalid")

	// ErrConfiguration is returned when the signing secret is not configured.
	ErrConfiguration = errors.New("token signing secret is not configured")

	// ErrEmptyIdentity is returned when asked to issue a token for an empty name.
	ErrEmptyIdentity = errors.New("identity must not be empty")
)

// Claims is the payload carried by every token.
type Claims struct {
	UserName string `json:"userName"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 identity tokens with a shared secret.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithExpiry overrides DefaultExpiry.
func WithExpiry(d time.Duration) Option {
	return func(s *TokenService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithIssuer sets the iss claim on issued tokens and requires it on verification.
func WithIssuer(issuer string) Option {
	return func(s *TokenService) {
		s.issuer = issuer
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService creates a TokenService. An empty secret is a configuration error.
func NewTokenService(secret string, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, ErrConfiguration
	}

	s := &TokenService{
		secret: []byte(secret),
		expiry: DefaultExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Expiry reports the lifetime of tokens issued by this service.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Issue returns a signed token asserting identity. The caller must have
// established the identity by other means; Issue only encodes it.
func (s *TokenService) Issue(identity string) (string, error) {
	if identity == "" {
		return "", ErrEmptyIdentity
	}

	now := s.now()
	claims := Claims{
		UserName: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// A leading "Bearer " is tolerated.
func (s *TokenService) Verify(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", ErrMissingCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if !parsed.Valid {
		return "", ErrInvalidCredential
	}

	if claims.UserName == "" {
		return "", fmt.Errorf("%w: missing userName claim", ErrInvalidCredential)
	}

	return claims.UserName, nil
}
