package jwtauth

import "strings"

const (
	// ScopeClaim is the claim that carries the space-delimited scope list.
	ScopeClaim = "scope"

	// RefreshTokenScope marks a token as refresh-class.
	RefreshTokenScope = "REFRESH_TOKEN"
)

// ParseScope splits a scope claim into its tokens. Empty fragments produced
// by repeated spaces are dropped.
func ParseScope(scope string) []string {
	if scope == "" {
		return nil
	}
	parts := strings.Split(scope, " ")
	scopes := parts[:0]
	for _, p := range parts {
		if p != "" {
			scopes = append(scopes, p)
		}
	}
	if len(scopes) == 0 {
		return nil
	}
	return scopes
}

// JoinScopes encodes scopes as a claim value. Returns "" for an empty list,
// which callers treat as "omit the claim".
func JoinScopes(scopes []string) string {
	kept := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

// ContainsScope reports whether scopes contains want, ignoring case.
// Only whole tokens match.
func ContainsScope(scopes []string, want string) bool {
	if want == "" {
		return false
	}
	for _, s := range scopes {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// withRefreshScope returns a copy of scopes with RefreshTokenScope appended.
func withRefreshScope(scopes []string) []string {
	out := make([]string, 0, len(scopes)+1)
	out = append(out, scopes...)
	return append(out, RefreshTokenScope)
}
