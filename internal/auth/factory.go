package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/stacklok/opendata-catalog-server/internal/config"
)

// NewAuthMiddleware creates authentication middleware based on config.
// A nil config selects anonymous mode.
func NewAuthMiddleware(cfg *config.AuthConfig) (func(http.Handler) http.Handler, error) {
	if cfg == nil {
		slog.Info("auth: anonymous mode (no auth config)")
		return anonymousMiddleware, nil
	}

	switch cfg.Mode {
	case config.AuthModeAnonymous, "":
		slog.Info("auth: anonymous mode")
		return anonymousMiddleware, nil
	case config.AuthModeJWT:
		return createJWTMiddleware(cfg.JWT)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

func createJWTMiddleware(cfg *config.JWTConfig) (func(http.Handler) http.Handler, error) {
	if cfg == nil || cfg.SecretFile == "" {
		return nil, fmt.Errorf("jwt configuration with a secretFile is required for %s mode", config.AuthModeJWT)
	}

	secret, err := readSecretFile(cfg.SecretFile)
	if err != nil {
		return nil, err
	}

	validator, err := NewHMACValidator(secret, cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}

	slog.Info("auth: jwt mode", "issuer", cfg.Issuer, "audience", cfg.Audience)
	return NewBearerMiddleware(validator, DefaultRealm)
}

func readSecretFile(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read jwt secret file: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return nil, fmt.Errorf("jwt secret file %s is empty", path)
	}
	return []byte(secret), nil
}
