package auth

import (
	"context"
	"errors"
)

var (
	// ErrForbidden is returned when the caller does not administer the node
	ErrForbidden = errors.New("caller is not an administrator of this node")
	// ErrUnauthenticated is returned when no caller identity is attached to the request
	ErrUnauthenticated = errors.New("caller is not authenticated")
)

// Principal identifies the caller of a request
type Principal struct {
	// Subject is the token's sub claim, empty for anonymous callers
	Subject string
	// Anonymous is set when the server runs without authentication
	Anonymous bool
}

// AnonymousPrincipal is attached to every request in anonymous mode
var AnonymousPrincipal = Principal{Anonymous: true}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached by the auth middleware
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
