// Package config provides configuration loading and management for the catalog server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/opendata-catalog-server/internal/telemetry"
)

const (
	// FormatJSON is the JSON catalog format
	FormatJSON = "json"

	// FormatXLSX is the spreadsheet catalog format
	FormatXLSX = "xlsx"
)

const (
	// AuthModeAnonymous accepts every request and treats the caller as an anonymous principal
	AuthModeAnonymous = "anonymous"

	// AuthModeJWT requires a signed bearer token on every request
	AuthModeJWT = "jwt"
)

// EnvPrefix is the prefix of environment variables read by the server
const EnvPrefix = "CATALOG"

const (
	defaultDataDir       = "./data"
	defaultMaxUploadSize = int64(100 << 20)
	defaultFetchTimeout  = 30 * time.Second
	defaultMaxRetries    = 3
	defaultTimezone      = "UTC"
)

// NodeIdentifierPattern is the accepted shape of a node identifier
var NodeIdentifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Storage configures where catalog and distribution files are written
	Storage StorageConfig `yaml:"storage"`

	// Fetch configures remote retrieval of catalogs and distributions
	Fetch FetchConfig `yaml:"fetch"`

	// Catalog configures catalog submission behavior
	Catalog CatalogConfig `yaml:"catalog"`

	// Database is optional. When omitted the server keeps its state in memory.
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Auth configures how callers are identified
	Auth AuthConfig `yaml:"auth"`

	// Telemetry configures tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	// Nodes lists the publishing nodes provisioned at startup
	Nodes []NodeConfig `yaml:"nodes"`
}

// StorageConfig defines the on-disk layout root
type StorageConfig struct {
	// DataDir is the root directory for catalog/ and distributions/
	DataDir string `yaml:"dataDir"`

	// MaxUploadSize caps uploaded and fetched payloads in bytes
	MaxUploadSize int64 `yaml:"maxUploadSize,omitempty"`
}

// FetchConfig defines how remote sources are retrieved
type FetchConfig struct {
	// Timeout bounds a whole fetch including retries (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxRetries is the number of attempts for transient failures
	MaxRetries uint `yaml:"maxRetries,omitempty"`
}

// CatalogConfig defines catalog submission behavior
type CatalogConfig struct {
	// StrictValidation rejects schema-invalid catalogs instead of storing them
	StrictValidation bool `yaml:"strictValidation,omitempty"`

	// Timezone decides which calendar day a submission belongs to
	Timezone string `yaml:"timezone,omitempty"`
}

// AuthConfig defines caller identification
type AuthConfig struct {
	// Mode is one of anonymous or jwt
	Mode string `yaml:"mode,omitempty"`

	// JWT is required when Mode is jwt
	JWT *JWTConfig `yaml:"jwt,omitempty"`

	// PolicyFile replaces the built-in Cedar policies for node mutations
	PolicyFile string `yaml:"policyFile,omitempty"`
}

// JWTConfig defines HMAC-signed bearer token validation
type JWTConfig struct {
	// SecretFile contains the HMAC signing key
	SecretFile string `yaml:"secretFile"`

	// Issuer, when set, must match the token's iss claim
	Issuer string `yaml:"issuer,omitempty"`

	// Audience, when set, must be present in the token's aud claim
	Audience string `yaml:"audience,omitempty"`
}

// NodeConfig provisions a publishing node
type NodeConfig struct {
	// Identifier is the node's unique short name
	Identifier string `yaml:"identifier"`

	// Admins lists the principals allowed to mutate the node
	Admins []string `yaml:"admins,omitempty"`

	// Source is the node's own published catalog, used by sync
	Source *NodeSourceConfig `yaml:"source,omitempty"`
}

// NodeSourceConfig declares where a node publishes its catalog
type NodeSourceConfig struct {
	URL    string `yaml:"url"`
	Format string `yaml:"format,omitempty"`

	// SyncDistributions also fetches every distribution downloadURL on sync
	SyncDistributions bool `yaml:"syncDistributions,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from CATALOG_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv("CATALOG_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or CATALOG_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetDataDir returns the storage root, using ./data if not specified
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir == "" {
		return defaultDataDir
	}
	return c.Storage.DataDir
}

// GetMaxUploadSize returns the upload cap in bytes
func (c *Config) GetMaxUploadSize() int64 {
	if c.Storage.MaxUploadSize <= 0 {
		return defaultMaxUploadSize
	}
	return c.Storage.MaxUploadSize
}

// GetFetchTimeout returns the remote fetch budget. Validation guarantees it parses.
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Fetch.Timeout == "" {
		return defaultFetchTimeout
	}
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return defaultFetchTimeout
	}
	return d
}

// GetMaxRetries returns the number of fetch attempts
func (c *Config) GetMaxRetries() uint {
	if c.Fetch.MaxRetries == 0 {
		return defaultMaxRetries
	}
	return c.Fetch.MaxRetries
}

// GetLocation returns the time zone used to compute submission days
func (c *Config) GetLocation() *time.Location {
	name := c.Catalog.Timezone
	if name == "" {
		name = defaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetAuthMode returns the auth mode, using anonymous if not specified
func (c *Config) GetAuthMode() string {
	if c.Auth.Mode == "" {
		return AuthModeAnonymous
	}
	return c.Auth.Mode
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Fetch.Timeout != "" {
		d, err := time.ParseDuration(c.Fetch.Timeout)
		if err != nil {
			return fmt.Errorf("fetch.timeout: invalid duration: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("fetch.timeout: must be positive")
		}
	}

	if c.Catalog.Timezone != "" {
		if _, err := time.LoadLocation(c.Catalog.Timezone); err != nil {
			return fmt.Errorf("catalog.timezone: %w", err)
		}
	}

	if err := validateAuthConfig(&c.Auth); err != nil {
		return err
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	seen := make(map[string]bool)
	for i, node := range c.Nodes {
		if seen[node.Identifier] {
			return fmt.Errorf("nodes[%d]: duplicate node identifier '%s'", i, node.Identifier)
		}
		seen[node.Identifier] = true

		if err := validateNodeConfig(&node, fmt.Sprintf("nodes[%d]", i)); err != nil {
			return err
		}
	}

	return nil
}

func validateAuthConfig(auth *AuthConfig) error {
	switch auth.Mode {
	case "", AuthModeAnonymous:
		return nil
	case AuthModeJWT:
		if auth.JWT == nil || auth.JWT.SecretFile == "" {
			return fmt.Errorf("auth.jwt.secretFile is required when auth.mode is %s", AuthModeJWT)
		}
		return nil
	default:
		return fmt.Errorf("auth.mode: unsupported mode '%s'", auth.Mode)
	}
}

func validateNodeConfig(node *NodeConfig, prefix string) error {
	if !NodeIdentifierPattern.MatchString(node.Identifier) {
		return fmt.Errorf("%s: identifier '%s' must be 1-20 letters, digits, '-' or '_'", prefix, node.Identifier)
	}
	prefix = fmt.Sprintf("%s (%s)", prefix, node.Identifier)

	if node.Source == nil {
		return nil
	}
	if node.Source.URL == "" {
		return fmt.Errorf("%s: source.url is required", prefix)
	}
	u, err := url.Parse(node.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s: source.url must be an http or https URL", prefix)
	}
	switch node.Source.Format {
	case "", FormatJSON, FormatXLSX:
	default:
		return fmt.Errorf("%s: source.format must be %s or %s", prefix, FormatJSON, FormatXLSX)
	}
	return nil
}
