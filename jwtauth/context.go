package jwtauth

import "context"

// contextKey is an unexported type for context keys to prevent collisions
type contextKey string

const (
	claimsContextKey    contextKey = "github.com/Wang-tianhao/vibrant-bearer-auth-go/jwtauth:claims"
	requestIDContextKey contextKey = "github.com/Wang-tianhao/vibrant-bearer-auth-go/jwtauth:request_id"
)

// WithClaims stores validated JWT claims in the request context.
// Claims are immutable and should not be modified by downstream handlers.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// GetClaims retrieves validated JWT claims from the request context.
// Returns nil, false if claims are not present or have wrong type.
// Always check the ok return value before using claims.
func GetClaims(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

// MustGetClaims retrieves claims from context and panics if not present.
// Use only when you're certain claims exist (e.g., after middleware validation).
func MustGetClaims(ctx context.Context) *Claims {
	claims, ok := GetClaims(ctx)
	if !ok {
		panic("jwtauth: claims not found in context")
	}
	return claims
}

// AuthenticatedPrincipal returns the claims attached by the access decision
// layer. Calling it outside an authenticated request is a programming error
// and yields NO_AUTHENTICATED_PRINCIPAL.
func AuthenticatedPrincipal(ctx context.Context) (*Claims, error) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return nil, NewValidationError(ErrNoPrincipal, "no authenticated principal in context", nil)
	}
	return claims, nil
}

// HasScope reports whether the request's principal holds scope.
// False when there is no principal or no scope claim.
func HasScope(ctx context.Context, scope string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}
	return claims.HasScope(scope)
}

// GetClaim returns a typed claim of the request's principal.
func GetClaim[T any](ctx context.Context, name string) (T, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		var zero T
		return zero, false
	}
	return ClaimAs[T](claims, name)
}

// WithRequestID stores a request ID in context for correlation
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}
