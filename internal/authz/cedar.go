package authz

import (
	"context"
	"fmt"
	"log/slog"

	cedar "github.com/cedar-policy/cedar-go"
)

const cedarNamespace = "CatalogServer"

// anonymousUID names the principal entity of anonymous callers
const anonymousUID = "anonymous"

type cedarAuthorizer struct {
	policySet *cedar.PolicySet
}

var _ Authorizer = (*cedarAuthorizer)(nil)

// NewCedarAuthorizer creates a new Cedar-based authorizer.
// If policyBytes is nil, built-in default policies are used.
func NewCedarAuthorizer(policyBytes []byte) (*cedarAuthorizer, error) {
	if policyBytes == nil {
		policyBytes = []byte(defaultPolicies)
	}

	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Cedar policies: %w", err)
	}

	return &cedarAuthorizer{policySet: ps}, nil
}

// Authorize evaluates the policy set for the principal, action and node of req.
func (a *cedarAuthorizer) Authorize(ctx context.Context, req Request) (Decision, error) {
	principalID := req.Principal.Subject
	if req.Principal.Anonymous {
		principalID = anonymousUID
	}
	principalUID := cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::User"), cedar.String(principalID))
	resourceUID := cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::Node"), cedar.String(req.Node))

	admins := make([]cedar.Value, len(req.Admins))
	for i, admin := range req.Admins {
		admins[i] = cedar.String(admin)
	}

	entities := cedar.EntityMap{
		principalUID: cedar.Entity{
			UID: principalUID,
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"subject":   cedar.String(req.Principal.Subject),
				"anonymous": cedar.Boolean(req.Principal.Anonymous),
			}),
		},
		resourceUID: cedar.Entity{
			UID: resourceUID,
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"admins": cedar.NewSet(admins...),
			}),
		},
	}

	cedarReq := cedar.Request{
		Principal: principalUID,
		Action:    cedar.NewEntityUID(cedar.EntityType(cedarNamespace+"::Action"), cedar.String(req.Action)),
		Resource:  resourceUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}

	decision, diagnostic := cedar.Authorize(a.policySet, entities, cedarReq)

	slog.DebugContext(ctx, "Authorization decision",
		"action", req.Action,
		"decision", decision,
		"subject", req.Principal.Subject,
		"node", req.Node,
	)

	var reasons []string
	for _, r := range diagnostic.Reasons {
		reasons = append(reasons, string(r.PolicyID))
	}
	for _, e := range diagnostic.Errors {
		slog.WarnContext(ctx, "Policy evaluation error",
			"policy", e.PolicyID,
			"error", e.Message)
	}

	return Decision{
		Allowed: decision == cedar.Allow,
		Reasons: reasons,
	}, nil
}
