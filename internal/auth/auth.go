// Package auth decides whether the caller attached to a request context may
// perform an operation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrUnauthorized is returned when the request carries no authenticated caller.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the caller lacks the role a resource requires.
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Roles  []string
}

// HasRole reports whether p carries role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext returns the caller stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// Authorizer gates mutating operations.
type Authorizer interface {
	Authorize(ctx context.Context, resource string) error
}

// ClaimsAuthorizer authorizes from the principal placed in the context by the
// authentication middleware. A resource listed in RequiredRoles additionally
// needs one of its roles; any other resource only needs an authenticated caller.
type ClaimsAuthorizer struct {
	RequiredRoles map[string][]string
}

// Authorize implements Authorizer.
func (a ClaimsAuthorizer) Authorize(ctx context.Context, resource string) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return fmt.Errorf("%s: %w", resource, ErrUnauthorized)
	}
	roles := a.RequiredRoles[resource]
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if p.HasRole(role) {
			return nil
		}
	}
	return fmt.Errorf("user %s may not access %s: %w", p.UserID, resource, ErrForbidden)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, resource string) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, resource string) error {
	return f(ctx, resource)
}
