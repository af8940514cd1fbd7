// Package integration runs the catalog API server end to end: it starts the
// application from a configuration file and drives it over HTTP, including
// syncs against a stub upstream catalog.
package integration
