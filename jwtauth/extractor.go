package jwtauth

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

const bearerScheme = "bearer"

// parseBearer splits "Bearer <token>"; the scheme is case-insensitive
func parseBearer(value string) (string, error) {
	scheme, token, found := strings.Cut(value, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", NewValidationError(ErrMalformed, "invalid authorization format, expected 'Bearer <token>'", nil)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", NewValidationError(ErrMissingToken, "token is empty", nil)
	}
	return token, nil
}

// extractTokenFromHeader extracts the token from "Authorization: Bearer <token>"
func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", NewValidationError(ErrMissingToken, "authorization header not found", nil)
	}
	return parseBearer(authHeader)
}

// extractTokenFromCookie extracts JWT token from a cookie
func extractTokenFromCookie(r *http.Request, cookieName string) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", NewValidationError(ErrMissingToken, "cookie not found", err)
	}

	token := strings.TrimSpace(cookie.Value)
	if token == "" {
		return "", NewValidationError(ErrMissingToken, "cookie value is empty", nil)
	}

	return token, nil
}

// extractToken extracts JWT token from HTTP request
// Checks Authorization header first, then falls back to cookie if configured
func extractToken(r *http.Request, cfg *Config) (string, error) {
	token, err := extractTokenFromHeader(r)
	if err == nil {
		return token, nil
	}

	// Cookie fallback only when no header was sent at all
	if cfg.CookieName() != "" && HasCode(err, ErrMissingToken) {
		if token, cookieErr := extractTokenFromCookie(r, cfg.CookieName()); cookieErr == nil {
			return token, nil
		}
	}

	return "", err
}

// extractTokenFromMetadata extracts JWT token from gRPC metadata
func extractTokenFromMetadata(md metadata.MD) (string, error) {
	values := md.Get("authorization")
	if len(values) == 0 || values[0] == "" {
		return "", NewValidationError(ErrMissingToken, "authorization metadata not found", nil)
	}
	return parseBearer(values[0])
}

// requestIDFromMetadata returns the caller's x-request-id, if any
func requestIDFromMetadata(md metadata.MD) string {
	if values := md.Get("x-request-id"); len(values) > 0 {
		return values[0]
	}
	return ""
}
