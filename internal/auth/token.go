package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"alertify/internal/keystore"
)

// ErrTokenMalformedOrInvalid is returned for any token that fails verification.
var ErrTokenMalformedOrInvalid = errors.New("token malformed or invalid")

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 24 * time.Hour

const bearerPrefix = "bearer "

// KeyProvider resolves signing keys; *keystore.Ring implements it.
type KeyProvider interface {
	Current() (keystore.Key, error)
	Lookup(id string) (keystore.Key, bool)
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	keys   KeyProvider
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*TokenService)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIssuer(issuer string) Option {
	return func(s *TokenService) {
		s.issuer = issuer
	}
}

func NewTokenService(keys KeyProvider, ttl time.Duration, opts ...Option) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		keys: keys,
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token whose subject is username.
func (s *TokenService) Issue(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", errors.New("issue token: username is required")
	}

	key, err := s.keys.Current()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	now := s.now()
	claims := &jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = key.ID
	signed, err := token.SignedString(key.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractToken returns the bearer token carried by the Authorization header.
func (s *TokenService) ExtractToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// Validate reports whether token verifies and has not expired.
func (s *TokenService) Validate(token string) bool {
	_, err := s.parse(token)
	return err == nil
}

// Identity returns the username of a verified token.
func (s *TokenService) Identity(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) parse(raw string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformedOrInvalid, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrTokenMalformedOrInvalid)
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("missing kid header")
	}
	key, ok := s.keys.Lookup(kid)
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key.Secret, nil
}
