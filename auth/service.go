package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultTenantID is used when neither the credential store nor the service configuration supplies a tenant.
const DefaultTenantID = "0"

// TokenService issues tokens for users and validates roles carried by tokens.
type TokenService interface {
	// Login verifies user credentials and issues a bearer token.
	//
	// It returns ErrAuthenticationFailed for unknown users and wrong passwords alike.
	Login(ctx context.Context, r LoginRequest) (TokenResponse, error)

	// ValidateRole verifies a token issued by this service and checks whether it grants a role.
	// It never contacts the credential store.
	ValidateRole(ctx context.Context, token string, role string) RoleCheckResult
}

type LoginRequest struct {
	UserName string `json:"userName" schema:"userName" validate:"required"`
	Password string `json:"password" schema:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// TokenServiceImpl orchestrates credential verification, claims identity construction and token encoding.
type TokenServiceImpl struct {
	CredentialStore CredentialStore
	TokenCodec      TokenCodec

	// RoleMatchMode controls how ValidateRole looks for role claims.
	// The zero value only inspects the first claim of the token.
	RoleMatchMode RoleMatchMode

	// DefaultTenantID is embedded in tokens of principals without a tenant.
	// Falls back to DefaultTenantID (the package constant) when empty.
	DefaultTenantID string

	Logger *zap.Logger
}

func (s TokenServiceImpl) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}

	return s.Logger
}

// Login implements TokenService.
func (s TokenServiceImpl) Login(ctx context.Context, r LoginRequest) (TokenResponse, error) {
	logger := s.logger()

	if r.UserName == "" || r.Password == "" {
		return TokenResponse{}, ErrAuthenticationFailed
	}

	principal, err := s.CredentialStore.Verify(ctx, r.UserName, r.Password)
	if errors.Is(err, ErrAuthenticationFailed) {
		logger.Debug("login failure", zap.String("userName", r.UserName))

		return TokenResponse{}, ErrAuthenticationFailed
	} else if err != nil {
		return TokenResponse{}, fmt.Errorf("verifying credentials: %w", err)
	}

	roles, err := s.CredentialStore.RolesOf(ctx, principal.ID)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("listing roles: %w", err)
	}

	var roleClaims []Claim

	for _, role := range roles {
		claims, err := s.CredentialStore.RoleClaims(ctx, role)
		if err != nil {
			return TokenResponse{}, fmt.Errorf("listing claims of role %q: %w", role, err)
		}

		roleClaims = append(roleClaims, claims...)
	}

	identity := BuildClaimsIdentity(principal, roles, roleClaims)

	token, err := s.TokenCodec.Encode(identity, principal.ID, s.tenantID(principal))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("encoding token: %w", err)
	}

	logger.Info("token issued", zap.String("subject", principal.ID), zap.Strings("roles", roles))

	return TokenResponse{
		Token:     token.Payload,
		TokenType: TokenTypeBearer,
		ExpiresIn: int(token.ExpiresIn.Seconds()),
	}, nil
}

func (s TokenServiceImpl) tenantID(principal Principal) string {
	if principal.TenantID != "" {
		return principal.TenantID
	}

	if s.DefaultTenantID != "" {
		return s.DefaultTenantID
	}

	return DefaultTenantID
}

// ValidateRole implements TokenService.
func (s TokenServiceImpl) ValidateRole(_ context.Context, token string, role string) RoleCheckResult {
	logger := s.logger()

	claims, err := s.TokenCodec.Decode(token)
	if err != nil {
		logger.Warn(
			"unable to validate security token",
			zap.String("reason", string(VerificationReasonOf(err))),
			zap.Error(err),
		)

		return TokenInvalid
	}

	result := CheckRole(claims, role, s.RoleMatchMode)

	logger.Debug(
		"role validated",
		zap.String("subject", claims.Subject()),
		zap.String("role", role),
		zap.Stringer("result", result),
	)

	return result
}
