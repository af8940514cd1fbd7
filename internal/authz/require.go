package authz

import (
	"context"
	"fmt"

	"github.com/stacklok/opendata-catalog-server/internal/auth"
)

// Require authorizes the principal attached to ctx. Denials are reported as
// auth.ErrUnauthenticated or auth.ErrForbidden.
func Require(ctx context.Context, a Authorizer, action, node string, admins []string) error {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || (!p.Anonymous && p.Subject == "") {
		return auth.ErrUnauthenticated
	}

	decision, err := a.Authorize(ctx, Request{
		Principal: p,
		Action:    action,
		Node:      node,
		Admins:    admins,
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if !decision.Allowed {
		return auth.ErrForbidden
	}
	return nil
}
