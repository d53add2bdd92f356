package jwtauth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// forbiddenBody is the only thing a client learns about an authorization denial
var forbiddenBody = gin.H{"message": "forbidden"}

// JWTAuth returns a Gin middleware that requires a valid token on every route
func JWTAuth(cfg *Config) gin.HandlerFunc {
	return Guard(cfg, NewPolicy(Authenticated()))
}

// Guard returns a Gin middleware that authenticates the request and applies
// the policy rule for the matched route. Routes are keyed by c.FullPath(),
// or by the URL path when no route matched.
func Guard(cfg *Config, policy *Policy) gin.HandlerFunc {
	verifier := NewVerifier(cfg)

	return func(c *gin.Context) {
		startTime := time.Now()

		// Generate or extract request ID for correlation
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		token, extractErr := extractToken(c.Request, cfg)
		decision := Decide(verifier, policy.RuleFor(route), token, extractErr)
		logDecision(cfg, requestID, route, token, decision, time.Since(startTime))

		switch decision.Outcome {
		case OutcomeUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, buildErrorResponse(decision.Err))
			return
		case OutcomeForbidden:
			c.AbortWithStatusJSON(http.StatusForbidden, forbiddenBody)
			return
		}

		// Inject claims and request ID into context
		ctx := WithRequestID(c.Request.Context(), requestID)
		if decision.Claims != nil {
			ctx = WithClaims(ctx, decision.Claims)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireScopeHandler is a per-route Gin handler that answers 403 unless the
// authenticated principal holds scope. Mount it after Guard or JWTAuth.
func RequireScopeHandler(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasScope(c.Request.Context(), scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, forbiddenBody)
			return
		}
		c.Next()
	}
}

// buildErrorResponse constructs the 401 body. Only the error code reaches the
// client; algorithm errors also carry their message since it names no secrets.
func buildErrorResponse(err error) gin.H {
	response := gin.H{
		"error":  "unauthorized",
		"reason": getErrorCode(err),
	}

	if valErr, ok := err.(*ValidationError); ok {
		if valErr.Code == ErrUnsupportedAlgorithm || valErr.Code == ErrMalformedAlgorithmHeader {
			if valErr.Message != "" {
				response["message"] = valErr.Message
			}
		}
	}

	return response
}
