// Package authz decides whether a caller may modify a publishing node using Cedar policies.
package authz

import (
	"context"

	"github.com/stacklok/opendata-catalog-server/internal/auth"
)

// Authorizer evaluates authorization decisions using Cedar policies.
type Authorizer interface {
	// Authorize checks if the principal can perform the action on the node.
	Authorize(ctx context.Context, req Request) (Decision, error)
}

// Request represents an authorization request.
type Request struct {
	// Principal is the caller identified by the auth middleware.
	Principal auth.Principal

	// Action is the Cedar action name, see RouteAction.
	Action string

	// Node is the identifier of the node being modified.
	Node string

	// Admins are the principals that administer Node.
	Admins []string
}

// Decision represents the result of an authorization check.
type Decision struct {
	// Allowed indicates whether the request is permitted.
	Allowed bool

	// Reasons provides policy IDs that contributed to the decision.
	Reasons []string
}
