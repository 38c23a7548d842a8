package auth

import (
	"fmt"
	"slices"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/invstream/errors"
)

// Scopes granted by simulator tokens.
const (
	ScopeStreamRead     = "inventory:read"
	ScopeInventoryWrite = "inventory:write"
)

// Claims are the token claims: the registered set plus granted scopes.
type Claims struct {
	gojwt.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// HasScope reports whether scope was granted.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// Service mints and verifies HMAC-signed JWTs.
type Service struct {
	cfg    Config
	method gojwt.SigningMethod
	key    []byte
	parser *gojwt.Parser
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for minting and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:    cfg,
		method: cfg.method(),
		key:    []byte(cfg.Secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.method.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
		gojwt.WithLeeway(cfg.Leeway),
		gojwt.WithTimeFunc(func() time.Time { return s.now() }),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, gojwt.WithAudience(cfg.Audience))
	}
	s.parser = gojwt.NewParser(parserOpts...)
	return s, nil
}

// TTL returns the lifetime of minted tokens.
func (s *Service) TTL() time.Duration { return s.cfg.TTL }

// Mint signs a token for subject with the given scopes. A positive ttl
// overrides the configured one.
func (s *Service) Mint(subject string, ttl time.Duration, scopes ...string) (string, *Claims, error) {
	if subject == "" {
		return "", nil, apperrors.MissingField("subject")
	}
	if ttl <= 0 {
		ttl = s.cfg.TTL
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		Scopes: scopes,
	}
	if s.cfg.Audience != "" {
		claims.Audience = gojwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := gojwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature, algorithm, time claims and, when configured,
// issuer and audience. Failures are INVALID_TOKEN app errors wrapping the
// parser's reason.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, apperrors.InvalidToken().WithCause(err)
	}
	return claims, nil
}
