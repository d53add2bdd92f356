package jwtauth

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints RS256 access and refresh tokens.
// It holds no mutable state and is safe for concurrent use.
type Issuer struct {
	cfg *Config
}

// TokenPair is an access token and its refresh token, minted at the same instant
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	IssuedAt         time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// NewIssuer returns an Issuer for cfg. The config must carry a private key.
func NewIssuer(cfg *Config) (*Issuer, error) {
	if cfg == nil || !cfg.CanSign() {
		return nil, NewValidationError(ErrConfigError, "issuing tokens requires a private key (use WithPrivateKey or WithKeyPair)", nil)
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue mints an access token with the configured access lifetime
func (i *Issuer) Issue(subject, issuer string, claims map[string]string, scopes []string) (string, error) {
	return i.IssueWithTTL(subject, issuer, claims, scopes, i.cfg.AccessTokenTTL())
}

// IssueWithTTL mints a token that expires ttl after now. ttl is truncated to
// whole seconds and must be at least one second.
func (i *Issuer) IssueWithTTL(subject, issuer string, claims map[string]string, scopes []string, ttl time.Duration) (string, error) {
	token, _, err := i.issueAt(i.now(), subject, issuer, claims, scopes, ttl)
	return token, err
}

// IssueRefresh mints a refresh token: the caller's scopes plus REFRESH_TOKEN,
// with the configured refresh lifetime
func (i *Issuer) IssueRefresh(subject, issuer string, claims map[string]string, scopes []string) (string, error) {
	token, _, err := i.issueAt(i.now(), subject, issuer, claims, withRefreshScope(scopes), i.cfg.RefreshTokenTTL())
	return token, err
}

// IssuePair mints an access and a refresh token from a single clock reading
func (i *Issuer) IssuePair(subject, issuer string, claims map[string]string, scopes []string) (*TokenPair, error) {
	now := i.now()

	access, accessExp, err := i.issueAt(now, subject, issuer, claims, scopes, i.cfg.AccessTokenTTL())
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.issueAt(now, subject, issuer, claims, withRefreshScope(scopes), i.cfg.RefreshTokenTTL())
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		IssuedAt:         now,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// now reads the clock once, truncated to the NumericDate resolution
func (i *Issuer) now() time.Time {
	return i.cfg.Clock().Now().UTC().Truncate(time.Second)
}

func (i *Issuer) issueAt(now time.Time, subject, issuer string, claims map[string]string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	mapClaims, err := buildClaims(now, subject, issuer, claims, scopes, ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	token := jwt.NewWithClaims(signingMethod, mapClaims)
	signed, err := token.SignedString(i.cfg.keys.Private)
	if err != nil {
		return "", time.Time{}, NewValidationError(ErrConfigError, "failed to sign token", err)
	}

	expiresAt := now.Add(ttl.Truncate(time.Second))
	logTokenIssued(i.cfg, subject, mapClaims, ttl)
	return signed, expiresAt, nil
}

// buildClaims assembles the claim set for one issuance. Reserved names in
// extra are rejected rather than silently overwritten.
func buildClaims(now time.Time, subject, issuer string, extra map[string]string, scopes []string, ttl time.Duration) (jwt.MapClaims, error) {
	if subject == "" {
		return nil, NewValidationError(ErrInvalidClaims, "subject is required", nil)
	}
	if issuer == "" {
		return nil, NewValidationError(ErrInvalidClaims, "issuer is required", nil)
	}
	ttl = ttl.Truncate(time.Second)
	if ttl < time.Second {
		return nil, NewValidationError(ErrInvalidClaims, fmt.Sprintf("token lifetime must be at least 1s, got %v", ttl), nil)
	}

	claims := jwt.MapClaims{
		ClaimSubject:   subject,
		ClaimIssuer:    issuer,
		ClaimIssuedAt:  jwt.NewNumericDate(now),
		ClaimExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	if scope := JoinScopes(scopes); scope != "" {
		claims[ScopeClaim] = scope
	}

	// Sorted so the error names the same claim on every call
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "" {
			return nil, NewValidationError(ErrInvalidClaims, "claim name cannot be empty", nil)
		}
		if IsReservedClaim(name) {
			return nil, NewValidationError(ErrReservedClaim, fmt.Sprintf("claim %q is reserved", name), nil)
		}
		claims[name] = extra[name]
	}

	return claims, nil
}
