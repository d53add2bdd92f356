package jwtauth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

const (
	pemBegin = "-----BEGIN "
	pemEnd   = "-----END "
	pemDash  = "-----"
)

// KeyPair holds the RSA key material used for signing and verification.
// Private is nil in verify-only deployments.
type KeyPair struct {
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// CanSign reports whether the pair carries a private key
func (k *KeyPair) CanSign() bool {
	return k != nil && k.Private != nil
}

// LoadKeyPair parses a public key and an optional private key. When both are
// present they must belong to the same pair.
func LoadKeyPair(publicPEM, privatePEM string) (*KeyPair, error) {
	pub, err := LoadPublicKey(publicPEM)
	if err != nil {
		return nil, err
	}

	pair := &KeyPair{Public: pub}
	if strings.TrimSpace(privatePEM) == "" {
		return pair, nil
	}

	priv, err := LoadPrivateKey(privatePEM)
	if err != nil {
		return nil, err
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, NewValidationError(ErrKeyParse, "private key does not match public key", nil)
	}
	pair.Private = priv
	return pair, nil
}

// LoadPrivateKey parses an RSA private key from PEM text.
// Accepts PKCS#8 ("PRIVATE KEY") and PKCS#1 ("RSA PRIVATE KEY") armor.
func LoadPrivateKey(pemText string) (*rsa.PrivateKey, error) {
	label, der, err := decodeArmor(pemText)
	if err != nil {
		return nil, err
	}

	switch label {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return nil, NewValidationError(ErrKeyParse, "invalid PKCS#8 private key", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, NewValidationError(ErrKeyParse, fmt.Sprintf("key is not an RSA private key (%T)", key), nil)
		}
		return rsaKey, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return nil, NewValidationError(ErrKeyParse, "invalid PKCS#1 private key", err)
		}
		return key, nil
	default:
		return nil, NewValidationError(ErrKeyParse, fmt.Sprintf("unexpected PEM type %q for private key", label), nil)
	}
}

// LoadPublicKey parses an RSA public key from PEM text.
// Accepts PKIX ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") armor.
func LoadPublicKey(pemText string) (*rsa.PublicKey, error) {
	label, der, err := decodeArmor(pemText)
	if err != nil {
		return nil, err
	}

	switch label {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(der)
		if err != nil {
			return nil, NewValidationError(ErrKeyParse, "invalid X.509 public key", err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, NewValidationError(ErrKeyParse, fmt.Sprintf("key is not an RSA public key (%T)", key), nil)
		}
		return rsaKey, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(der)
		if err != nil {
			return nil, NewValidationError(ErrKeyParse, "invalid PKCS#1 public key", err)
		}
		return key, nil
	default:
		return nil, NewValidationError(ErrKeyParse, fmt.Sprintf("unexpected PEM type %q for public key", label), nil)
	}
}

// LoadPublicKeyFile reads and parses a PEM public key file
func LoadPublicKeyFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewValidationError(ErrKeyParse, fmt.Sprintf("read public key file %s", path), err)
	}
	return LoadPublicKey(string(data))
}

// LoadPrivateKeyFile reads and parses a PEM private key file
func LoadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewValidationError(ErrKeyParse, fmt.Sprintf("read private key file %s", path), err)
	}
	return LoadPrivateKey(string(data))
}

// decodeArmor strips the BEGIN/END lines and every whitespace character from
// the body, then base64-decodes what is left. Unlike pem.Decode it tolerates
// keys collapsed onto one line, which is how they usually arrive via env vars.
func decodeArmor(text string) (string, []byte, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, `\n`, "\n"))

	if !strings.HasPrefix(text, pemBegin) {
		return "", nil, NewValidationError(ErrKeyParse, "missing PEM BEGIN header", nil)
	}
	rest := text[len(pemBegin):]
	i := strings.Index(rest, pemDash)
	if i <= 0 {
		return "", nil, NewValidationError(ErrKeyParse, "malformed PEM BEGIN header", nil)
	}
	label := rest[:i]
	rest = rest[i+len(pemDash):]

	footer := pemEnd + label + pemDash
	j := strings.Index(rest, footer)
	if j < 0 {
		return "", nil, NewValidationError(ErrKeyParse, fmt.Sprintf("missing or mismatched PEM END footer for %q", label), nil)
	}
	if strings.TrimSpace(rest[j+len(footer):]) != "" {
		return "", nil, NewValidationError(ErrKeyParse, "unexpected data after PEM END footer", nil)
	}

	body := strings.Join(strings.Fields(rest[:j]), "")
	if body == "" {
		return "", nil, NewValidationError(ErrKeyParse, "empty PEM body", nil)
	}
	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, NewValidationError(ErrKeyParse, "invalid base64 in PEM body", err)
	}
	return label, der, nil
}
