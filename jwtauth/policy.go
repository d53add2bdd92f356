package jwtauth

import (
	"fmt"
	"sort"
	"strings"
)

type ruleKind int

const (
	rulePermitAll ruleKind = iota
	ruleAuthenticated
	ruleRequireScope
	ruleDenyAll
)

// Rule is the authorization requirement attached to a route
type Rule struct {
	kind  ruleKind
	scope string
}

// PermitAll lets anonymous requests through. A presented token is still verified.
func PermitAll() Rule { return Rule{kind: rulePermitAll} }

// Authenticated requires a valid token
func Authenticated() Rule { return Rule{kind: ruleAuthenticated} }

// RequireScope requires a valid token that carries scope (case-insensitive)
func RequireScope(scope string) Rule { return Rule{kind: ruleRequireScope, scope: scope} }

// DenyAll refuses every request, including ones with a valid token
func DenyAll() Rule { return Rule{kind: ruleDenyAll} }

// RequiresAuthentication reports whether an anonymous request must be rejected with 401
func (r Rule) RequiresAuthentication() bool {
	return r.kind != rulePermitAll
}

// Scope returns the scope demanded by a RequireScope rule
func (r Rule) Scope() string {
	return r.scope
}

func (r Rule) String() string {
	switch r.kind {
	case rulePermitAll:
		return "permitAll"
	case ruleAuthenticated:
		return "authenticated"
	case ruleRequireScope:
		return fmt.Sprintf("scope(%s)", r.scope)
	case ruleDenyAll:
		return "denyAll"
	}
	return "unknown"
}

type prefixRule struct {
	prefix string
	rule   Rule
}

// Policy maps routes to rules. Routes are gin route templates such as
// "/api/users/:id" or gRPC full method names such as "/pkg.Service/Method".
// A pattern ending in "*" matches by prefix. Exact matches win over prefixes
// and longer prefixes win over shorter ones; anything else gets the fallback.
//
// Build the policy at startup; it must not be modified once requests are served.
type Policy struct {
	fallback Rule
	exact    map[string]Rule
	prefixes []prefixRule
}

// NewPolicy returns a Policy applying fallback to unmatched routes
func NewPolicy(fallback Rule) *Policy {
	return &Policy{
		fallback: fallback,
		exact:    make(map[string]Rule),
	}
}

// Route attaches rule to pattern and returns the policy for chaining
func (p *Policy) Route(pattern string, rule Rule) *Policy {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		p.prefixes = append(p.prefixes, prefixRule{prefix: prefix, rule: rule})
		sort.SliceStable(p.prefixes, func(i, j int) bool {
			return len(p.prefixes[i].prefix) > len(p.prefixes[j].prefix)
		})
		return p
	}
	p.exact[pattern] = rule
	return p
}

// RuleFor returns the rule governing route
func (p *Policy) RuleFor(route string) Rule {
	if rule, ok := p.exact[route]; ok {
		return rule
	}
	for _, pr := range p.prefixes {
		if strings.HasPrefix(route, pr.prefix) {
			return pr.rule
		}
	}
	return p.fallback
}
