package jwtauth

import "time"

// Registered claim names written by the issuer or interpreted by the verifier.
const (
	ClaimSubject   = "sub"
	ClaimIssuer    = "iss"
	ClaimAudience  = "aud"
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimJWTID     = "jti"
)

// reservedClaims may not be supplied as extra claims at issuance.
var reservedClaims = map[string]bool{
	ClaimSubject: true, ClaimIssuer: true, ClaimAudience: true, ClaimExpiresAt: true,
	ClaimNotBefore: true, ClaimIssuedAt: true, ClaimJWTID: true, ScopeClaim: true,
}

// IsReservedClaim reports whether name is managed by the issuer itself
func IsReservedClaim(name string) bool {
	return reservedClaims[name]
}

// Claims represents parsed and validated JWT claims
type Claims struct {
	Subject   string                 // User identifier (sub claim)
	Issuer    string                 // Token issuer (iss claim)
	Audience  string                 // Intended audience (aud claim)
	ExpiresAt time.Time              // Expiration time (exp claim)
	NotBefore time.Time              // Not-before time (nbf claim)
	IssuedAt  time.Time              // Issue time (iat claim)
	JWTID     string                 // JWT ID (jti claim)
	Scope     string                 // Space-delimited scopes; "" when the claim is absent
	Custom    map[string]interface{} // Custom application-specific claims
}

// Scopes returns the scope claim as a list. Nil when absent.
func (c *Claims) Scopes() []string {
	if c == nil {
		return nil
	}
	return ParseScope(c.Scope)
}

// HasScope reports whether the token grants scope, case-insensitively.
// A missing scope claim is an empty set.
func (c *Claims) HasScope(scope string) bool {
	return ContainsScope(c.Scopes(), scope)
}

// IsRefresh reports whether the token carries the refresh sentinel scope
func (c *Claims) IsRefresh() bool {
	return c.HasScope(RefreshTokenScope)
}

// Claim looks up a claim by its wire name. Time claims come back as time.Time.
func (c *Claims) Claim(name string) (interface{}, bool) {
	if c == nil {
		return nil, false
	}

	switch name {
	case ClaimSubject:
		return c.Subject, c.Subject != ""
	case ClaimIssuer:
		return c.Issuer, c.Issuer != ""
	case ClaimAudience:
		return c.Audience, c.Audience != ""
	case ClaimJWTID:
		return c.JWTID, c.JWTID != ""
	case ScopeClaim:
		return c.Scope, c.Scope != ""
	case ClaimExpiresAt:
		return c.ExpiresAt, !c.ExpiresAt.IsZero()
	case ClaimNotBefore:
		return c.NotBefore, !c.NotBefore.IsZero()
	case ClaimIssuedAt:
		return c.IssuedAt, !c.IssuedAt.IsZero()
	}

	v, ok := c.Custom[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ClaimAs returns the named claim when it is present and holds a T.
// It never fails: missing or differently typed claims yield the zero value and false.
// Note that JSON numbers decode as float64.
func ClaimAs[T any](c *Claims, name string) (T, bool) {
	var zero T
	v, ok := c.Claim(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
