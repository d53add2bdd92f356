package jwtauth

import "net/http"

// Outcome is the terminal state of an access decision
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeUnauthenticated
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Decision is the result of authenticating and authorizing one request.
// A forbidden request is a normal outcome, not an error.
type Decision struct {
	Outcome Outcome
	Rule    Rule
	Claims  *Claims // verified principal; nil for anonymous or rejected requests
	Err     error   // authentication failure cause, set when Outcome is OutcomeUnauthenticated
}

// Allowed reports whether the request may proceed
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

// StatusCode maps the outcome to its HTTP status
func (d Decision) StatusCode() int {
	switch d.Outcome {
	case OutcomeUnauthenticated:
		return http.StatusUnauthorized
	case OutcomeForbidden:
		return http.StatusForbidden
	}
	return http.StatusOK
}

// Decide runs one request through
// Unauthenticated -> TokenPresent -> TokenVerified -> AuthorizationChecked.
// token and extractErr are what the transport's token extraction produced.
func Decide(v *Verifier, rule Rule, token string, extractErr error) Decision {
	d := Decision{Rule: rule}

	if extractErr != nil {
		if HasCode(extractErr, ErrMissingToken) && !rule.RequiresAuthentication() {
			d.Outcome = OutcomeAllowed
			return d
		}
		d.Outcome = OutcomeUnauthenticated
		d.Err = extractErr
		return d
	}

	claims, err := v.Verify(token)
	if err != nil {
		d.Outcome = OutcomeUnauthenticated
		d.Err = err
		return d
	}
	d.Claims = claims

	switch rule.kind {
	case ruleDenyAll:
		d.Outcome = OutcomeForbidden
	case ruleRequireScope:
		if claims.HasScope(rule.scope) {
			d.Outcome = OutcomeAllowed
		} else {
			d.Outcome = OutcomeForbidden
		}
	default:
		d.Outcome = OutcomeAllowed
	}
	return d
}
