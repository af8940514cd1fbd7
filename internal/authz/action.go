package authz

import (
	"net/http"
	"strings"
)

// Actions evaluated by the policies
const (
	ActionSubmitCatalog      = "submit_catalog"
	ActionWriteDistribution  = "write_distribution"
	ActionDeleteDistribution = "delete_distribution"
	ActionSync               = "sync"
	// ActionAdmin is required for mutations the router does not classify
	ActionAdmin = "admin"
)

// RouteAction determines the required action from the HTTP method and the
// path of a node-scoped request.
func RouteAction(method, path string) string {
	path = strings.TrimSuffix(path, "/")

	switch method {
	case http.MethodPost:
		switch {
		case strings.HasSuffix(path, "/catalog"):
			return ActionSubmitCatalog
		case strings.HasSuffix(path, "/sync"):
			return ActionSync
		case strings.HasSuffix(path, "/distributions"), isVersionsPath(path):
			return ActionWriteDistribution
		}
	case http.MethodDelete:
		if isDistributionPath(path) {
			return ActionDeleteDistribution
		}
	}

	return ActionAdmin
}

// isDistributionPath matches .../distributions/{distribution}
func isDistributionPath(path string) bool {
	rest, ok := afterSegment(path, "/distributions/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// isVersionsPath matches .../distributions/{distribution}/versions
func isVersionsPath(path string) bool {
	rest, ok := afterSegment(path, "/distributions/")
	if !ok {
		return false
	}
	dist, tail, found := strings.Cut(rest, "/")
	return found && dist != "" && tail == "versions"
}

func afterSegment(path, segment string) (string, bool) {
	idx := strings.LastIndex(path, segment)
	if idx < 0 {
		return "", false
	}
	return path[idx+len(segment):], true
}
