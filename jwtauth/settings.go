package jwtauth

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override key settings
const (
	EnvPublicKey      = "JWTAUTH_PUBLIC_KEY"
	EnvPrivateKey     = "JWTAUTH_PRIVATE_KEY"
	EnvPublicKeyFile  = "JWTAUTH_PUBLIC_KEY_FILE"
	EnvPrivateKeyFile = "JWTAUTH_PRIVATE_KEY_FILE"
)

var ErrSettingsNotFound = errors.New("settings file not found")

// KeySettings holds PEM text or paths to PEM files. Inline text wins over a file.
type KeySettings struct {
	PublicKey      string `yaml:"public_key,omitempty"`
	PrivateKey     string `yaml:"private_key,omitempty"`
	PublicKeyFile  string `yaml:"public_key_file,omitempty"`
	PrivateKeyFile string `yaml:"private_key_file,omitempty"`
}

// Lifetime is an amount plus a unit, e.g. 60 minutes
type Lifetime struct {
	Expiry     int64  `yaml:"expiry"`
	ExpiryUnit string `yaml:"expiry_unit"`
}

// Settings is the on-disk configuration surface
type Settings struct {
	Keys           KeySettings `yaml:"keys"`
	AccessToken    Lifetime    `yaml:"access_token"`
	RefreshToken   Lifetime    `yaml:"refresh_token"`
	ClockSkew      string      `yaml:"clock_skew,omitempty"`
	CookieName     string      `yaml:"cookie_name,omitempty"`
	RequiredClaims []string    `yaml:"required_claims,omitempty"`
}

// DefaultSettings returns 60 minute access and 30 day refresh lifetimes
func DefaultSettings() *Settings {
	return &Settings{
		AccessToken:  Lifetime{Expiry: 60, ExpiryUnit: "minutes"},
		RefreshToken: Lifetime{Expiry: 30, ExpiryUnit: "days"},
	}
}

// LoadSettings reads a YAML settings file over DefaultSettings
func LoadSettings(filename string) (*Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w (filename=%s)", ErrSettingsNotFound, filename)
		}
		return nil, fmt.Errorf("read file %s: %w", filename, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("unmarshal yaml (filename=%s): %w", filename, err)
	}
	return settings, nil
}

// ApplyEnv overrides key settings from the environment. lookup is usually os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPublicKey); ok && v != "" {
		s.Keys.PublicKey = v
	}
	if v, ok := lookup(EnvPrivateKey); ok && v != "" {
		s.Keys.PrivateKey = v
	}
	if v, ok := lookup(EnvPublicKeyFile); ok && v != "" {
		s.Keys.PublicKeyFile = v
	}
	if v, ok := lookup(EnvPrivateKeyFile); ok && v != "" {
		s.Keys.PrivateKeyFile = v
	}
}

// LoadKeys parses the configured key material. Any failure is a KEY_PARSE
// error and should stop the process.
func (s *Settings) LoadKeys() (*KeyPair, error) {
	pair := &KeyPair{}

	switch {
	case strings.TrimSpace(s.Keys.PublicKey) != "":
		pub, err := LoadPublicKey(s.Keys.PublicKey)
		if err != nil {
			return nil, err
		}
		pair.Public = pub
	case s.Keys.PublicKeyFile != "":
		pub, err := LoadPublicKeyFile(s.Keys.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		pair.Public = pub
	default:
		return nil, NewValidationError(ErrKeyParse, "no public key configured", nil)
	}

	switch {
	case strings.TrimSpace(s.Keys.PrivateKey) != "":
		priv, err := LoadPrivateKey(s.Keys.PrivateKey)
		if err != nil {
			return nil, err
		}
		pair.Private = priv
	case s.Keys.PrivateKeyFile != "":
		priv, err := LoadPrivateKeyFile(s.Keys.PrivateKeyFile)
		if err != nil {
			return nil, err
		}
		pair.Private = priv
	}

	if pair.Private != nil && !pair.Private.PublicKey.Equal(pair.Public) {
		return nil, NewValidationError(ErrKeyParse, "private key does not match public key", nil)
	}
	return pair, nil
}

// Options converts the settings into ConfigOptions. extra options are
// appended, so callers can add a logger or clock.
func (s *Settings) Options(extra ...ConfigOption) ([]ConfigOption, error) {
	keys, err := s.LoadKeys()
	if err != nil {
		return nil, err
	}

	accessTTL, err := s.AccessToken.Duration()
	if err != nil {
		return nil, fmt.Errorf("access_token: %w", err)
	}
	refreshTTL, err := s.RefreshToken.Duration()
	if err != nil {
		return nil, fmt.Errorf("refresh_token: %w", err)
	}

	opts := []ConfigOption{
		WithKeyPair(keys),
		WithAccessTokenTTL(accessTTL),
		WithRefreshTokenTTL(refreshTTL),
	}

	if s.ClockSkew != "" {
		skew, err := time.ParseDuration(s.ClockSkew)
		if err != nil {
			return nil, fmt.Errorf("clock_skew: %w", err)
		}
		opts = append(opts, WithClockSkew(skew))
	}
	if s.CookieName != "" {
		opts = append(opts, WithCookie(s.CookieName))
	}
	if len(s.RequiredClaims) > 0 {
		opts = append(opts, WithRequiredClaims(s.RequiredClaims...))
	}

	return append(opts, extra...), nil
}

// NewConfigFromSettings builds a Config, logging which capabilities are enabled
func NewConfigFromSettings(s *Settings, logger *slog.Logger, extra ...ConfigOption) (*Config, error) {
	opts, err := s.Options(extra...)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("token configuration loaded",
			slog.String("algorithm", cfg.Algorithm()),
			slog.Bool("can_sign", cfg.CanSign()),
			slog.Duration("access_ttl", cfg.AccessTokenTTL()),
			slog.Duration("refresh_ttl", cfg.RefreshTokenTTL()),
		)
	}
	return cfg, nil
}

// Duration converts the lifetime into a time.Duration
func (l Lifetime) Duration() (time.Duration, error) {
	if l.Expiry <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %d", l.Expiry)
	}
	unit, err := parseExpiryUnit(l.ExpiryUnit)
	if err != nil {
		return 0, err
	}
	if l.Expiry > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("expiry %d %s overflows a duration", l.Expiry, l.ExpiryUnit)
	}
	return time.Duration(l.Expiry) * unit, nil
}

// parseExpiryUnit accepts seconds, minutes, hours and days, singular or
// plural, in any case
func parseExpiryUnit(unit string) (time.Duration, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), "s") {
	case "second":
		return time.Second, nil
	case "minute":
		return time.Minute, nil
	case "hour":
		return time.Hour, nil
	case "day":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported expiry unit %q", unit)
}
