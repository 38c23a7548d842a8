package auth

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported HMAC algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
)

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 16

// Config configures token minting and verification.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// Method is the signing algorithm (default HS256).
	Method SigningMethod `yaml:"method" mapstructure:"method"`
	// Issuer is the "iss" claim, checked on verify when set.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// Audience is the "aud" claim, checked on verify when set.
	Audience string `yaml:"audience" mapstructure:"audience"`
	// TTL is the lifetime of minted tokens (default 15m).
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration `yaml:"leeway" mapstructure:"leeway"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.TTL == 0 {
		c.TTL = 15 * time.Minute
	}
}

// Validate checks the signing settings.
func (c *Config) Validate() error {
	if len(c.Secret) < MinSecretLength {
		return errors.New("auth.secret must be at least 16 bytes")
	}
	if c.method() == nil {
		return errors.New("auth.method must be one of HS256, HS384, HS512")
	}
	if c.TTL <= 0 {
		return errors.New("auth.ttl must be positive")
	}
	return nil
}

func (c *Config) method() gojwt.SigningMethod {
	switch c.Method {
	case HS256:
		return gojwt.SigningMethodHS256
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	default:
		return nil
	}
}
