package jwtauth

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"
)

// captureLogs returns a JSON logger writing to buf and a function that
// decodes every line written so far
func captureLogs(t *testing.T, level slog.Level) (*slog.Logger, func() []map[string]interface{}) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))

	return logger, func() []map[string]interface{} {
		var entries []map[string]interface{}
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var entry map[string]interface{}
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				t.Fatalf("Failed to parse log line %q: %v", line, err)
			}
			entries = append(entries, entry)
		}
		return entries
	}
}

func authEvent(t *testing.T, entry map[string]interface{}) map[string]interface{} {
	t.Helper()
	event, ok := entry["auth_event"].(map[string]interface{})
	if !ok {
		t.Fatalf("auth_event missing from %v", entry)
	}
	return event
}

func TestSecurityEvents_Gin(t *testing.T) {
	logger, entries := captureLogs(t, slog.LevelInfo)
	cfg, clock := newTestConfig(t, WithLogger(logger))
	router := setupTestRouter(cfg)
	token := generateTestToken(t, newTestIssuer(t, cfg))

	doRequest(router, "/api/test", bearer(token))
	doRequest(router, "/api/test/forbidden", bearer(token))
	doRequest(router, "/public", nil) // anonymous is logged at debug only
	clock.Add(2 * time.Hour)
	doRequest(router, "/api/test", func(r *http.Request) {
		bearer(token)(r)
		r.Header.Set("X-Request-ID", "req-expired")
	})

	got := entries()
	if len(got) != 3 {
		t.Fatalf("Expected 3 log entries, got %d: %v", len(got), got)
	}

	tests := []struct {
		msg    string
		level  string
		event  string
		rule   string
		reason string
	}{
		{msg: "authentication succeeded", level: "INFO", event: "success", rule: "authenticated"},
		{msg: "authorization denied", level: "WARN", event: "denied", rule: "denyAll"},
		{msg: "authentication failed", level: "WARN", event: "failure", rule: "authenticated", reason: "EXPIRED"},
	}

	for i, tt := range tests {
		entry := got[i]
		if entry["msg"] != tt.msg || entry["level"] != tt.level {
			t.Errorf("entry %d: msg=%v level=%v, want %s/%s", i, entry["msg"], entry["level"], tt.msg, tt.level)
		}
		event := authEvent(t, entry)
		if event["event"] != tt.event || event["rule"] != tt.rule {
			t.Errorf("entry %d: event=%v rule=%v", i, event["event"], event["rule"])
		}
		if event["failure_reason"] != tt.reason {
			t.Errorf("entry %d: failure_reason=%v, want %q", i, event["failure_reason"], tt.reason)
		}
		if event["algorithm"] != "RS256" {
			t.Errorf("entry %d: algorithm=%v", i, event["algorithm"])
		}
		if event["user_id"] != "testSubject" && tt.event != "failure" {
			t.Errorf("entry %d: user_id=%v", i, event["user_id"])
		}
		if tok, _ := event["token"].(string); strings.Contains(token, tok) && len(tok) > 8 {
			t.Errorf("entry %d: token not redacted: %q", i, tok)
		}
	}

	if id := authEvent(t, got[2])["request_id"]; id != "req-expired" {
		t.Errorf("request_id = %v, want req-expired", id)
	}
}

func TestSecurityEvents_DebugLevel(t *testing.T) {
	logger, entries := captureLogs(t, slog.LevelDebug)
	cfg, _ := newTestConfig(t, WithLogger(logger))
	issuer := newTestIssuer(t, cfg)

	generateTestToken(t, issuer)
	doRequest(setupTestRouter(cfg), "/public", nil)

	got := entries()
	if len(got) != 2 {
		t.Fatalf("Expected 2 log entries, got %d: %v", len(got), got)
	}
	if got[0]["msg"] != "token issued" || got[0]["subject"] != "testSubject" || got[0]["scope"] != "ADMIN USER" {
		t.Errorf("issuance entry = %v", got[0])
	}
	if got[1]["msg"] != "anonymous request permitted" || authEvent(t, got[1])["event"] != "anonymous" {
		t.Errorf("anonymous entry = %v", got[1])
	}
}

func TestLogging_DisabledWithoutLogger(t *testing.T) {
	cfg, _ := newTestConfig(t)
	// Must not panic with a nil logger
	logDecision(cfg, "req", "/x", "token", Decision{Outcome: OutcomeAllowed}, time.Millisecond)
	logSecurityEvent(nil, SecurityEvent{EventType: eventFailure})
}

func TestRedactToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"eyJhbGciOiJSUzI1NiJ9.payload.sig", "eyJhbGci..."},
	}

	for _, tt := range tests {
		if got := redactToken(tt.input); got != tt.want {
			t.Errorf("redactToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// nonCanonicalHeaderToken encodes a valid header with a non-zero padding bit,
// which the verifier refuses to decode
func nonCanonicalHeaderToken(t *testing.T) string {
	t.Helper()
	header := `{"alg":"RS256","kid":"k1"}`
	if len(header)%3 == 0 {
		t.Fatalf("header %q leaves no padding bits", header)
	}
	token := rawToken(header, `{}`, "")
	end := strings.IndexByte(token, '.') - 1
	return setLowBits(token, end, 1)
}

func TestExtractAlgorithmFromToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{rawToken(`{"alg":"RS256"}`, `{}`, ""), "RS256"},
		{rawToken(`{"alg":"none"}`, `{}`, ""), "none"},
		{rawToken(`{"alg":1}`, `{}`, ""), "MALFORMED"},
		{nonCanonicalHeaderToken(t), "MALFORMED"},
		{"no-dots", "MALFORMED"},
		{"!!!.x.y", "MALFORMED"},
	}

	for _, tt := range tests {
		if got := extractAlgorithmFromToken(tt.token); got != tt.want {
			t.Errorf("extractAlgorithmFromToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}
