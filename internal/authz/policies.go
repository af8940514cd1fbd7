package authz

// defaultPolicies let anonymous servers accept every mutation and otherwise
// limit node mutations to the node's administrators. principal.subject and
// resource.admins are populated from the request in Go code.
const defaultPolicies = `
permit(
  principal,
  action,
  resource
) when {
  principal.anonymous
};

permit(
  principal,
  action in [
    CatalogServer::Action::"submit_catalog",
    CatalogServer::Action::"write_distribution",
    CatalogServer::Action::"delete_distribution",
    CatalogServer::Action::"sync"
  ],
  resource
) when {
  resource.admins.contains(principal.subject)
};
`
