package database

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// ServerRole is the role granted the privileges the catalog server needs at runtime
const ServerRole = "catalog_server"

//go:embed prime.sql.tmpl
var primeTemplate string

var roleNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// RenderPrimeSQL returns the statements that create the server role and a login
// user holding it. The username must be a plain lowercase identifier.
func RenderPrimeSQL(username, password string) (string, error) {
	if !roleNamePattern.MatchString(username) {
		return "", fmt.Errorf("invalid username %q: must match %s", username, roleNamePattern)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	tmpl, err := template.New("prime").Parse(primeTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := struct {
		Role     string
		Username string
		Password string
	}{
		Role:     ServerRole,
		Username: username,
		Password: strings.ReplaceAll(password, "'", "''"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
