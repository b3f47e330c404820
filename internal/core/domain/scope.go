package domain

import (
	"fmt"
	"strings"
)

// AccessScope classifies content and searches as public or private
type AccessScope string

const (
	ScopePublic  AccessScope = "public"  // Visible to everyone
	ScopePrivate AccessScope = "private" // Visible to authenticated employees only
)

// AllScopes lists every scope, in the order indexes are written
func AllScopes() []AccessScope {
	return []AccessScope{ScopePrivate, ScopePublic}
}

// Valid reports whether s is a known scope
func (s AccessScope) Valid() bool {
	return s == ScopePublic || s == ScopePrivate
}

// ParseScope converts user input into an AccessScope
func ParseScope(value string) (AccessScope, error) {
	scope := AccessScope(strings.ToLower(strings.TrimSpace(value)))
	if !scope.Valid() {
		return "", fmt.Errorf("%w: type must be public or private, got %q", ErrInvalidInput, value)
	}
	return scope, nil
}

// IngestTargets returns the indexes content of this scope is written to.
// Public content goes to both indexes so authenticated searches see it too.
func (s AccessScope) IngestTargets() []AccessScope {
	if s == ScopePrivate {
		return []AccessScope{ScopePrivate}
	}
	return []AccessScope{ScopePrivate, ScopePublic}
}

// QueryContext carries everything a chat request needs about its caller.
// It is built per request and passed explicitly into the core.
type QueryContext struct {
	Question      string
	Authenticated bool
	PrincipalID   int64
	Role          Role
}

// AnonymousQuery builds a QueryContext for an unauthenticated caller
func AnonymousQuery(question string) QueryContext {
	return QueryContext{Question: question}
}

// QueryFor builds a QueryContext for the given auth context, which may be nil
func QueryFor(question string, auth *AuthContext) QueryContext {
	if auth == nil {
		return AnonymousQuery(question)
	}
	return QueryContext{
		Question:      question,
		Authenticated: true,
		PrincipalID:   auth.EmployeeID,
		Role:          auth.Role,
	}
}

// Scope returns the index a search for this caller must use
func (q QueryContext) Scope() AccessScope {
	if q.Authenticated {
		return ScopePrivate
	}
	return ScopePublic
}
