package jwtauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrivateKey(t *testing.T) {
	key := sharedTestKey()
	pkcs8 := privateKeyPEM(t, key)
	pkcs1 := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))

	tests := []struct {
		name  string
		input string
	}{
		{name: "PKCS8 multi-line", input: pkcs8},
		{name: "PKCS1 multi-line", input: pkcs1},
		{name: "single line", input: strings.ReplaceAll(pkcs8, "\n", "")},
		{name: "escaped newlines", input: strings.ReplaceAll(pkcs8, "\n", `\n`)},
		{name: "surrounding whitespace", input: "\n\n  " + pkcs8 + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadPrivateKey(tt.input)
			if err != nil {
				t.Fatalf("LoadPrivateKey() error = %v", err)
			}
			if !got.Equal(key) {
				t.Error("Parsed private key does not match the original")
			}
		})
	}
}

func TestLoadPublicKey(t *testing.T) {
	key := &sharedTestKey().PublicKey
	pkix := publicKeyPEM(t, key)
	pkcs1 := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(key)}))

	for name, input := range map[string]string{
		"PKIX":        pkix,
		"PKCS1":       pkcs1,
		"single line": strings.ReplaceAll(pkix, "\n", ""),
		"CRLF":        strings.ReplaceAll(pkix, "\n", "\r\n"),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := LoadPublicKey(input)
			if err != nil {
				t.Fatalf("LoadPublicKey() error = %v", err)
			}
			if !got.Equal(key) {
				t.Error("Parsed public key does not match the original")
			}
		})
	}
}

func TestLoadKey_Rejects(t *testing.T) {
	key := sharedTestKey()
	pub := publicKeyPEM(t, &key.PublicKey)
	priv := privateKeyPEM(t, key)

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate EC key: %v", err)
	}
	ecDER, _ := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
	ecPub := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: ecDER}))

	tests := []struct {
		name string
		load func() error
	}{
		{"empty", func() error { _, err := LoadPublicKey(""); return err }},
		{"no armor", func() error { _, err := LoadPublicKey("MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA"); return err }},
		{"mismatched footer", func() error {
			_, err := LoadPublicKey(strings.Replace(pub, "-----END PUBLIC KEY-----", "-----END PRIVATE KEY-----", 1))
			return err
		}},
		{"missing footer", func() error {
			_, err := LoadPublicKey(strings.Replace(pub, "-----END PUBLIC KEY-----", "", 1))
			return err
		}},
		{"trailing data", func() error { _, err := LoadPublicKey(pub + "garbage"); return err }},
		{"bad base64", func() error {
			_, err := LoadPublicKey("-----BEGIN PUBLIC KEY-----\n!!!notbase64!!!\n-----END PUBLIC KEY-----")
			return err
		}},
		{"empty body", func() error {
			_, err := LoadPublicKey("-----BEGIN PUBLIC KEY-----\n-----END PUBLIC KEY-----")
			return err
		}},
		{"private key where public expected", func() error { _, err := LoadPublicKey(priv); return err }},
		{"public key where private expected", func() error { _, err := LoadPrivateKey(pub); return err }},
		{"non-RSA public key", func() error { _, err := LoadPublicKey(ecPub); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, tt.load(), ErrKeyParse)
		})
	}
}

func TestLoadKeyPair(t *testing.T) {
	key := sharedTestKey()
	pub := publicKeyPEM(t, &key.PublicKey)
	priv := privateKeyPEM(t, key)

	t.Run("public only", func(t *testing.T) {
		pair, err := LoadKeyPair(pub, "")
		if err != nil {
			t.Fatalf("LoadKeyPair() error = %v", err)
		}
		if pair.CanSign() {
			t.Error("Expected verify-only key pair")
		}
	})

	t.Run("both keys", func(t *testing.T) {
		pair, err := LoadKeyPair(pub, priv)
		if err != nil {
			t.Fatalf("LoadKeyPair() error = %v", err)
		}
		if !pair.CanSign() {
			t.Error("Expected key pair able to sign")
		}
	})

	t.Run("mismatched keys", func(t *testing.T) {
		other := privateKeyPEM(t, mustGenerateRSAKey())
		_, err := LoadKeyPair(pub, other)
		assertCode(t, err, ErrKeyParse)
	})
}

func TestLoadKeyFiles(t *testing.T) {
	key := sharedTestKey()
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "public.pem")
	privPath := filepath.Join(dir, "private.pem")
	if err := os.WriteFile(pubPath, []byte(publicKeyPEM(t, &key.PublicKey)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(privPath, []byte(privateKeyPEM(t, key)), 0o600); err != nil {
		t.Fatal(err)
	}

	pub, err := LoadPublicKeyFile(pubPath)
	if err != nil {
		t.Fatalf("LoadPublicKeyFile() error = %v", err)
	}
	if !pub.Equal(&key.PublicKey) {
		t.Error("Public key from file does not match")
	}

	priv, err := LoadPrivateKeyFile(privPath)
	if err != nil {
		t.Fatalf("LoadPrivateKeyFile() error = %v", err)
	}
	if !priv.Equal(key) {
		t.Error("Private key from file does not match")
	}

	_, err = LoadPublicKeyFile(filepath.Join(dir, "missing.pem"))
	assertCode(t, err, ErrKeyParse)
}
