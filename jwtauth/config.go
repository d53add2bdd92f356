package jwtauth

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL  = 60 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// signingMethod is the only algorithm issued or accepted
var signingMethod = jwt.SigningMethodRS256

// Config holds immutable configuration for token issuance and validation
type Config struct {
	keys            KeyPair
	clock           Clock
	accessTTL       time.Duration
	refreshTTL      time.Duration
	clockSkewLeeway time.Duration
	cookieName      string
	requiredClaims  []string
	logger          *slog.Logger
}

// ConfigOption is a functional option for configuring the middleware
type ConfigOption func(*Config) error

// NewConfig creates a new immutable configuration with the given options
func NewConfig(opts ...ConfigOption) (*Config, error) {
	cfg := &Config{
		clock:          SystemClock(),
		accessTTL:      DefaultAccessTokenTTL,
		refreshTTL:     DefaultRefreshTokenTTL,
		requiredClaims: []string{ClaimSubject, ClaimIssuer},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, NewValidationError(ErrConfigError, fmt.Sprintf("configuration error: %v", err), err)
		}
	}

	// Verification always needs the public key; a sign-only setup is not supported.
	if cfg.keys.Public == nil {
		return nil, NewValidationError(ErrConfigError, "a public key must be configured (use WithPublicKey or WithKeyPair)", nil)
	}
	if cfg.keys.Private != nil && !cfg.keys.Private.PublicKey.Equal(cfg.keys.Public) {
		return nil, NewValidationError(ErrConfigError, "private key does not match public key", nil)
	}

	return cfg, nil
}

// WithPublicKey configures the RS256 verification key
func WithPublicKey(publicKey *rsa.PublicKey) ConfigOption {
	return func(c *Config) error {
		if publicKey == nil {
			return fmt.Errorf("RS256 public key cannot be nil")
		}
		c.keys.Public = publicKey
		return nil
	}
}

// WithPrivateKey configures the RS256 signing key. Issuance is only
// available when this option is set.
func WithPrivateKey(privateKey *rsa.PrivateKey) ConfigOption {
	return func(c *Config) error {
		if privateKey == nil {
			return fmt.Errorf("RS256 private key cannot be nil")
		}
		c.keys.Private = privateKey
		return nil
	}
}

// WithKeyPair configures both keys from a loaded pair
func WithKeyPair(pair *KeyPair) ConfigOption {
	return func(c *Config) error {
		if pair == nil || pair.Public == nil {
			return fmt.Errorf("key pair must contain a public key")
		}
		c.keys = *pair
		return nil
	}
}

// WithClock replaces the wall clock, typically with a ManualClock in tests
func WithClock(clock Clock) ConfigOption {
	return func(c *Config) error {
		if clock == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.clock = clock
		return nil
	}
}

// WithAccessTokenTTL sets the default access token lifetime
func WithAccessTokenTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) error {
		if ttl < time.Second {
			return fmt.Errorf("access token lifetime must be at least 1s, got %v", ttl)
		}
		c.accessTTL = ttl
		return nil
	}
}

// WithRefreshTokenTTL sets the default refresh token lifetime
func WithRefreshTokenTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) error {
		if ttl < time.Second {
			return fmt.Errorf("refresh token lifetime must be at least 1s, got %v", ttl)
		}
		c.refreshTTL = ttl
		return nil
	}
}

// WithClockSkew sets the clock skew tolerance for exp/nbf validation.
// Defaults to zero: a token is expired from its exp instant onwards.
func WithClockSkew(skew time.Duration) ConfigOption {
	return func(c *Config) error {
		if skew < 0 {
			return fmt.Errorf("clock skew must be non-negative, got %v", skew)
		}
		c.clockSkewLeeway = skew
		return nil
	}
}

// WithCookie enables token extraction from a cookie with the given name
func WithCookie(cookieName string) ConfigOption {
	return func(c *Config) error {
		c.cookieName = cookieName
		return nil
	}
}

// WithLogger sets a structured logger for security events
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// WithRequiredClaims specifies claim names that must be present in the JWT,
// in addition to sub and iss
func WithRequiredClaims(claims ...string) ConfigOption {
	return func(c *Config) error {
		c.requiredClaims = append(c.requiredClaims, claims...)
		return nil
	}
}

// Getter methods

// Algorithm returns the signing algorithm name
func (c *Config) Algorithm() string {
	return signingMethod.Alg()
}

func (c *Config) PublicKey() *rsa.PublicKey {
	return c.keys.Public
}

// CanSign reports whether a private key is configured
func (c *Config) CanSign() bool {
	return c.keys.CanSign()
}

func (c *Config) Clock() Clock {
	return c.clock
}

func (c *Config) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return c.refreshTTL
}

func (c *Config) ClockSkewLeeway() time.Duration {
	return c.clockSkewLeeway
}

func (c *Config) CookieName() string {
	return c.cookieName
}

func (c *Config) RequiredClaims() []string {
	return c.requiredClaims
}

func (c *Config) Logger() *slog.Logger {
	return c.logger
}
