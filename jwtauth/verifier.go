package jwtauth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks RS256 bearer tokens against the configured public key.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	cfg    *Config
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for cfg. A public key is all it needs.
func NewVerifier(cfg *Config) *Verifier {
	return &Verifier{
		cfg: cfg,
		// Time claims are checked below against the injected clock
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
}

// Verify validates tokenString and returns its claims.
//
// The signature is checked before the payload is decoded, so any change to
// the header, payload or signature surfaces as INVALID_SIGNATURE rather than
// MALFORMED. Segments must be canonical unpadded base64url.
// Expiry uses a single clock reading: the token is expired once now >= exp.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, NewValidationError(ErrMalformed, "token must have three dot-separated segments", nil)
	}

	if err := v.verifySignature(parts); err != nil {
		return nil, err
	}

	token, _, err := v.parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		if token != nil {
			if algErr := checkAlgorithmHeader(token.Header); algErr != nil {
				return nil, algErr
			}
		}
		return nil, NewValidationError(ErrMalformed, "malformed token", err)
	}
	if err := checkAlgorithmHeader(token.Header); err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, NewValidationError(ErrMalformed, "invalid claims format", nil)
	}

	claims, err := mapJWTClaimsToClaims(mapClaims)
	if err != nil {
		return nil, err
	}

	if err := validateClaims(claims, v.cfg.Clock().Now(), v.cfg.ClockSkewLeeway()); err != nil {
		return nil, err
	}

	if err := validateRequiredClaims(mapClaims, v.cfg); err != nil {
		return nil, err
	}

	return claims, nil
}

// verifySignature checks the RS256 signature over "header.payload".
//
// On failure it names the algorithm only when the signature cannot be an
// RS256 signature for this key, as with "none" or an HMAC signed with the
// public key. Altering a byte of a genuine token keeps the signature length,
// so it always surfaces as INVALID_SIGNATURE.
func (v *Verifier) verifySignature(parts []string) error {
	sig, err := v.parser.DecodeSegment(parts[2])
	if err == nil {
		err = signingMethod.Verify(parts[0]+"."+parts[1], sig, v.cfg.PublicKey())
	}
	if err == nil {
		return nil
	}

	if len(sig) != v.cfg.PublicKey().Size() {
		if header, ok := decodeHeader(parts[0]); ok {
			if algErr := checkAlgorithmHeader(header); algErr != nil {
				return algErr
			}
		}
	}
	return NewValidationError(ErrInvalidSignature, "signature verification failed", err)
}

// segmentParser decodes segments outside of Verify; strict, like the verifier
var segmentParser = jwt.NewParser(jwt.WithStrictDecoding())

// decodeHeader best-effort decodes the JOSE header segment
func decodeHeader(segment string) (map[string]interface{}, bool) {
	raw, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return nil, false
	}
	var header map[string]interface{}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, false
	}
	return header, true
}

// checkAlgorithmHeader ensures the header names RS256
func checkAlgorithmHeader(header map[string]interface{}) error {
	rawAlg, exists := header["alg"]
	if !exists {
		return NewValidationError(ErrMalformed, "missing algorithm in token header", nil)
	}
	alg, ok := rawAlg.(string)
	if !ok {
		return NewValidationError(ErrMalformedAlgorithmHeader, "algorithm header must be a string", nil)
	}

	// Reject "none" explicitly (case-insensitive)
	if strings.EqualFold(alg, "none") {
		return NewValidationError(ErrNoneAlgorithm, "none algorithm not allowed", nil)
	}

	// Case-sensitive, and only RS256: this is what stops HS256-with-public-key confusion
	if alg != signingMethod.Alg() {
		return NewValidationError(
			ErrUnsupportedAlgorithm,
			fmt.Sprintf("algorithm %s not supported (available: %s)", alg, signingMethod.Alg()),
			nil,
		)
	}
	return nil
}

// mapJWTClaimsToClaims converts jwt.MapClaims to our Claims struct
func mapJWTClaimsToClaims(mapClaims jwt.MapClaims) (*Claims, error) {
	claims := &Claims{
		Custom: make(map[string]interface{}),
	}

	// Extract standard claims
	if sub, ok := mapClaims[ClaimSubject].(string); ok {
		claims.Subject = sub
	}
	if iss, ok := mapClaims[ClaimIssuer].(string); ok {
		claims.Issuer = iss
	}
	if jti, ok := mapClaims[ClaimJWTID].(string); ok {
		claims.JWTID = jti
	}
	// aud may be a string or a list; multiple audiences are space-joined
	if aud, err := mapClaims.GetAudience(); err == nil && len(aud) > 0 {
		claims.Audience = strings.Join(aud, " ")
	}

	// null is treated like an absent scope claim; any other non-string is rejected
	switch scope := mapClaims[ScopeClaim].(type) {
	case nil:
	case string:
		claims.Scope = scope
	default:
		return nil, NewValidationError(ErrMalformed, fmt.Sprintf("scope claim must be a string, got %T", scope), nil)
	}

	// Extract time-based claims
	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid exp claim", err)
	}
	if exp == nil {
		return nil, NewValidationError(ErrMalformed, "exp claim is required", nil)
	}
	claims.ExpiresAt = exp.Time.UTC()

	nbf, err := mapClaims.GetNotBefore()
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid nbf claim", err)
	}
	if nbf != nil {
		claims.NotBefore = nbf.Time.UTC()
	}

	iat, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, NewValidationError(ErrMalformed, "invalid iat claim", err)
	}
	if iat != nil {
		claims.IssuedAt = iat.Time.UTC()
	}

	// Copy custom claims
	for key, value := range mapClaims {
		if !reservedClaims[key] {
			claims.Custom[key] = value
		}
	}

	return claims, nil
}

// validateClaims validates time-based claims with clock skew tolerance
func validateClaims(claims *Claims, now time.Time, skew time.Duration) error {
	if !now.Before(claims.ExpiresAt.Add(skew)) {
		return NewValidationError(
			ErrExpired,
			fmt.Sprintf("token expired at %v", claims.ExpiresAt.Format(time.RFC3339)),
			nil,
		)
	}

	if !claims.NotBefore.IsZero() && now.Before(claims.NotBefore.Add(-skew)) {
		return NewValidationError(
			ErrNotYetValid,
			fmt.Sprintf("token not valid until %v", claims.NotBefore.Format(time.RFC3339)),
			nil,
		)
	}

	return nil
}

// validateRequiredClaims ensures all required claims are present
func validateRequiredClaims(mapClaims jwt.MapClaims, cfg *Config) error {
	for _, claimName := range cfg.RequiredClaims() {
		value, ok := mapClaims[claimName]
		if !ok || value == nil || value == "" {
			return NewValidationError(
				ErrMalformed,
				fmt.Sprintf("required claim missing: %s", claimName),
				nil,
			)
		}
	}
	return nil
}
