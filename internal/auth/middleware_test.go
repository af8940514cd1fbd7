package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/opendata-catalog-server/internal/auth/mocks"
)

func TestNewBearerMiddleware_NilValidator(t *testing.T) {
	t.Parallel()

	_, err := NewBearerMiddleware(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token validator is required")
}

func TestBearerMiddleware_Middleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		authHeader  string
		setupMock   func(*mocks.MockTokenValidator)
		wantStatus  int
		wantSubject string
		wantErrCode string
	}{
		{
			name:        "missing authorization header",
			wantStatus:  http.StatusUnauthorized,
			wantErrCode: errorCodeInvalidRequest,
		},
		{
			name:        "basic auth is rejected",
			authHeader:  "Basic xyz",
			wantStatus:  http.StatusUnauthorized,
			wantErrCode: errorCodeInvalidRequest,
		},
		{
			name:        "empty bearer token",
			authHeader:  "Bearer ",
			wantStatus:  http.StatusUnauthorized,
			wantErrCode: errorCodeInvalidRequest,
		},
		{
			name:       "valid token",
			authHeader: "Bearer valid-token",
			setupMock: func(m *mocks.MockTokenValidator) {
				m.EXPECT().ValidateToken(gomock.Any(), "valid-token").
					Return(jwt.MapClaims{"sub": "alice"}, nil)
			},
			wantStatus:  http.StatusOK,
			wantSubject: "alice",
		},
		{
			name:       "lowercase scheme",
			authHeader: "bearer valid-token",
			setupMock: func(m *mocks.MockTokenValidator) {
				m.EXPECT().ValidateToken(gomock.Any(), "valid-token").
					Return(jwt.MapClaims{"sub": "bob"}, nil)
			},
			wantStatus:  http.StatusOK,
			wantSubject: "bob",
		},
		{
			name:       "invalid token",
			authHeader: "Bearer bad-token",
			setupMock: func(m *mocks.MockTokenValidator) {
				m.EXPECT().ValidateToken(gomock.Any(), "bad-token").
					Return(nil, errors.New("signature is invalid"))
			},
			wantStatus:  http.StatusUnauthorized,
			wantErrCode: errorCodeInvalidToken,
		},
		{
			name:       "token without subject",
			authHeader: "Bearer nosub",
			setupMock: func(m *mocks.MockTokenValidator) {
				m.EXPECT().ValidateToken(gomock.Any(), "nosub").
					Return(jwt.MapClaims{"iss": "someone"}, nil)
			},
			wantStatus:  http.StatusUnauthorized,
			wantErrCode: errorCodeInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			validator := mocks.NewMockTokenValidator(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(validator)
			}

			mw, err := NewBearerMiddleware(validator, "")
			require.NoError(t, err)

			var gotPrincipal Principal
			called := false
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotPrincipal, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/v1/nodes/modernizacion/catalog", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, called)
				assert.Equal(t, tt.wantSubject, gotPrincipal.Subject)
				assert.False(t, gotPrincipal.Anonymous)
				return
			}

			assert.False(t, called)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			wwwAuth := rec.Header().Get("WWW-Authenticate")
			assert.Contains(t, wwwAuth, `realm="catalog-api"`)
			assert.Contains(t, wwwAuth, `error="`+tt.wantErrCode+`"`)
		})
	}
}

func TestAnonymousMiddleware(t *testing.T) {
	t.Parallel()

	var got Principal
	handler := anonymousMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, got.Anonymous)
	assert.Empty(t, got.Subject)
}

func TestSanitizeHeaderValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "line\r\nbreak", want: "linebreak"},
		{in: `say "hi"`, want: `say \"hi\"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeHeaderValue(tt.in))
	}
}
