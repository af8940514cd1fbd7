package auth

//go:generate mockgen -destination=mocks/mock_validator.go -package=mocks -source=validator.go TokenValidator

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (jwt.MapClaims, error)
}

// hmacValidator accepts tokens signed with a shared secret
type hmacValidator struct {
	secret []byte
	parser *jwt.Parser
}

var _ TokenValidator = (*hmacValidator)(nil)

// NewHMACValidator creates a TokenValidator for HS256/384/512 tokens.
// Issuer and audience are only enforced when non-empty. Tokens must carry an exp claim.
func NewHMACValidator(secret []byte, issuer, audience string) (TokenValidator, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret must not be empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &hmacValidator{secret: secret, parser: jwt.NewParser(opts...)}, nil
}

// ValidateToken parses and verifies token
func (v *hmacValidator) ValidateToken(_ context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
