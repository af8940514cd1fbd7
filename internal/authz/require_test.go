package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/opendata-catalog-server/internal/auth"
)

type failingAuthorizer struct{}

func (failingAuthorizer) Authorize(context.Context, Request) (Decision, error) {
	return Decision{}, errors.New("policy store unavailable")
}

func TestRequire(t *testing.T) {
	t.Parallel()

	authorizer, err := NewCedarAuthorizer(nil)
	require.NoError(t, err)

	admins := []string{"alice"}

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{name: "no principal", ctx: context.Background(), wantErr: auth.ErrUnauthenticated},
		{name: "empty subject", ctx: auth.WithPrincipal(context.Background(), auth.Principal{}), wantErr: auth.ErrUnauthenticated},
		{name: "anonymous", ctx: auth.WithPrincipal(context.Background(), auth.AnonymousPrincipal)},
		{name: "administrator", ctx: auth.WithPrincipal(context.Background(), auth.Principal{Subject: "alice"})},
		{name: "other principal", ctx: auth.WithPrincipal(context.Background(), auth.Principal{Subject: "bob"}), wantErr: auth.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Require(tt.ctx, authorizer, ActionSubmitCatalog, "energia", admins)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequire_AuthorizerError(t *testing.T) {
	t.Parallel()

	ctx := auth.WithPrincipal(context.Background(), auth.Principal{Subject: "alice"})
	err := Require(ctx, failingAuthorizer{}, ActionSync, "energia", []string{"alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy store unavailable")
	assert.NotErrorIs(t, err, auth.ErrForbidden)
}
