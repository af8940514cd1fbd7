package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/opendata-catalog-server/internal/config"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jwt-secret")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     func(t *testing.T) *config.AuthConfig
		wantErr string
	}{
		{
			name: "nil config is anonymous",
			cfg:  func(*testing.T) *config.AuthConfig { return nil },
		},
		{
			name: "anonymous mode",
			cfg: func(*testing.T) *config.AuthConfig {
				return &config.AuthConfig{Mode: config.AuthModeAnonymous}
			},
		},
		{
			name: "jwt mode",
			cfg: func(t *testing.T) *config.AuthConfig {
				return &config.AuthConfig{Mode: config.AuthModeJWT, JWT: &config.JWTConfig{SecretFile: writeSecret(t, "secret\n")}}
			},
		},
		{
			name: "jwt mode without jwt section",
			cfg: func(*testing.T) *config.AuthConfig {
				return &config.AuthConfig{Mode: config.AuthModeJWT}
			},
			wantErr: "secretFile is required",
		},
		{
			name: "jwt mode with missing secret file",
			cfg: func(t *testing.T) *config.AuthConfig {
				return &config.AuthConfig{Mode: config.AuthModeJWT,
					JWT: &config.JWTConfig{SecretFile: filepath.Join(t.TempDir(), "absent")}}
			},
			wantErr: "failed to read jwt secret file",
		},
		{
			name: "jwt mode with blank secret file",
			cfg: func(t *testing.T) *config.AuthConfig {
				return &config.AuthConfig{Mode: config.AuthModeJWT, JWT: &config.JWTConfig{SecretFile: writeSecret(t, "  \n")}}
			},
			wantErr: "is empty",
		},
		{
			name: "unsupported mode",
			cfg: func(*testing.T) *config.AuthConfig {
				return &config.AuthConfig{Mode: "oauth"}
			},
			wantErr: "unsupported auth mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw, err := NewAuthMiddleware(tt.cfg(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, mw)
		})
	}
}

func TestNewAuthMiddleware_JWTEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := &config.AuthConfig{
		Mode: config.AuthModeJWT,
		JWT: &config.JWTConfig{
			SecretFile: writeSecret(t, "shared-secret\n"),
			Issuer:     "https://auth.datos.example.org",
		},
	}
	mw, err := NewAuthMiddleware(cfg)
	require.NoError(t, err)

	var subject string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		subject = p.Subject
		w.WriteHeader(http.StatusNoContent)
	}))

	// The trailing newline in the secret file is not part of the key.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iss": "https://auth.datos.example.org",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/v1/nodes/modernizacion", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "alice", subject)

	req = httptest.NewRequest(http.MethodDelete, "/v1/nodes/modernizacion", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
