package jwtauth

import (
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Event types recorded in SecurityEvent.EventType
const (
	eventSuccess   = "success"
	eventFailure   = "failure"
	eventDenied    = "denied"
	eventAnonymous = "anonymous"
)

// SecurityEvent represents a structured security log entry
type SecurityEvent struct {
	EventType     string        // "success", "failure", "denied" or "anonymous"
	Timestamp     time.Time     // Event timestamp
	RequestID     string        // Correlation ID
	Route         string        // Route template or gRPC method
	Rule          string        // Policy rule applied to the route
	UserID        string        // Subject from claims (empty on failure)
	Algorithm     string        // Algorithm from the token header
	FailureReason string        // Error code (on failure)
	TokenPreview  string        // Redacted token preview
	Latency       time.Duration // Decision latency
}

// LogValue implements slog.LogValuer for structured logging with redaction
func (e SecurityEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("event", e.EventType),
		slog.Time("timestamp", e.Timestamp),
		slog.String("request_id", e.RequestID),
		slog.String("route", e.Route),
		slog.String("rule", e.Rule),
		slog.String("user_id", e.UserID),
		slog.String("algorithm", e.Algorithm),
		slog.String("failure_reason", e.FailureReason),
		slog.String("token", redactToken(e.TokenPreview)),
		slog.Duration("latency", e.Latency),
	)
}

// redactToken redacts sensitive token data
func redactToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}

// logSecurityEvent emits a security event via the configured logger
func logSecurityEvent(logger *slog.Logger, event SecurityEvent) {
	if logger == nil {
		return // Logging disabled
	}

	switch event.EventType {
	case eventFailure:
		logger.Warn("authentication failed", "auth_event", event)
	case eventDenied:
		logger.Warn("authorization denied", "auth_event", event)
	case eventAnonymous:
		logger.Debug("anonymous request permitted", "auth_event", event)
	default:
		logger.Info("authentication succeeded", "auth_event", event)
	}
}

// logDecision records the outcome of an access decision
func logDecision(cfg *Config, requestID, route, token string, d Decision, latency time.Duration) {
	if cfg.Logger() == nil {
		return
	}

	event := SecurityEvent{
		Timestamp:    cfg.Clock().Now(),
		RequestID:    requestID,
		Route:        route,
		Rule:         d.Rule.String(),
		TokenPreview: token,
		Latency:      latency,
	}
	if token != "" {
		event.Algorithm = extractAlgorithmFromToken(token)
	}
	if d.Claims != nil {
		event.UserID = d.Claims.Subject
	}

	switch {
	case d.Outcome == OutcomeUnauthenticated:
		event.EventType = eventFailure
		event.FailureReason = getErrorCode(d.Err)
	case d.Outcome == OutcomeForbidden:
		event.EventType = eventDenied
	case d.Claims == nil:
		event.EventType = eventAnonymous
	default:
		event.EventType = eventSuccess
	}

	logSecurityEvent(cfg.Logger(), event)
}

// logTokenIssued records an issuance at debug level. The token itself is never logged.
func logTokenIssued(cfg *Config, subject string, claims jwt.MapClaims, ttl time.Duration) {
	logger := cfg.Logger()
	if logger == nil {
		return
	}
	scope, _ := claims[ScopeClaim].(string)
	logger.Debug("token issued",
		slog.String("subject", subject),
		slog.String("scope", scope),
		slog.Duration("ttl", ttl),
	)
}

// getErrorCode extracts the error code from a validation error
func getErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if valErr, ok := err.(*ValidationError); ok {
		return string(valErr.Code)
	}
	return "UNKNOWN"
}

// extractAlgorithmFromToken extracts the algorithm from a JWT token header
// Returns "MALFORMED" if extraction fails (token will be logged as invalid anyway)
func extractAlgorithmFromToken(token string) string {
	segment, _, found := strings.Cut(token, ".")
	if !found {
		return "MALFORMED"
	}

	header, ok := decodeHeader(segment)
	if !ok {
		return "MALFORMED"
	}
	if alg, ok := header["alg"].(string); ok {
		return alg
	}

	return "MALFORMED"
}
