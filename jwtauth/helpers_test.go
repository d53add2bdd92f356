package jwtauth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"sync"
	"testing"
	"time"
)

// testTime matches the fixed instant used across the package tests
var testTime = time.Date(2020, 1, 1, 10, 15, 30, 0, time.UTC)

const testIssuer = "https://example.org"

var (
	sharedKey     *rsa.PrivateKey
	sharedKeyOnce sync.Once
)

// sharedTestKey returns a cached RSA key; generating one per test is slow
func sharedTestKey() *rsa.PrivateKey {
	sharedKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic("jwtauth: failed to generate test key: " + err.Error())
		}
		sharedKey = key
	})
	return sharedKey
}

func mustGenerateRSAKey() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
}

func mustCreateConfig(opts ...ConfigOption) *Config {
	cfg, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// newTestConfig returns a signing config on a ManualClock set to testTime
func newTestConfig(t *testing.T, opts ...ConfigOption) (*Config, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testTime)
	key := sharedTestKey()
	base := []ConfigOption{
		WithKeyPair(&KeyPair{Public: &key.PublicKey, Private: key}),
		WithClock(clock),
	}
	cfg, err := NewConfig(append(base, opts...)...)
	if err != nil {
		t.Fatalf("Failed to create config: %v", err)
	}
	return cfg, clock
}

func newTestIssuer(t *testing.T, cfg *Config) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("Failed to create issuer: %v", err)
	}
	return issuer
}

// generateTestToken mints the token most tests start from
func generateTestToken(t *testing.T, issuer *Issuer) string {
	t.Helper()
	token, err := issuer.Issue("testSubject", testIssuer, map[string]string{"k1": "v1", "k2": "v2"}, []string{"ADMIN", "USER"})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func privateKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal private key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func publicKeyPEM(t *testing.T, key *rsa.PublicKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func assertCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error %s, got nil", want)
	}
	valErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Code != want {
		t.Fatalf("Expected error code %s, got %s (%s)", want, valErr.Code, valErr.Message)
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
