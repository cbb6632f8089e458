package auth

import (
	"context"
	"errors"
)

// Principal represents a user whose credentials have been verified.
type Principal struct {
	// ID is the primary identifier of the user (eg. a UUID).
	// It becomes the "sub" claim of issued tokens.
	ID string

	// UserName is the name the user logs in with.
	UserName string

	FirstName string
	LastName  string

	// TenantID is the tenant the user belongs to, if the store is multi-tenant.
	TenantID string
}

// ErrAuthenticationFailed is returned when authentication fails.
//
// This error should only be returned if credential verification fails.
// It deliberately does not reveal whether the user name or the password was wrong.
// Any other error (eg. connection problems) should be returned directly.
var ErrAuthenticationFailed = errors.New("invalid username or password")

// CredentialStore verifies user credentials and lists the roles and role claims of users.
//
// Password hashing and user persistence are the responsibility of the implementation.
type CredentialStore interface {
	// Verify checks a user name and password pair.
	//
	// It returns an ErrAuthenticationFailed error in case credentials are invalid
	// or the user does not exist.
	Verify(ctx context.Context, userName string, password string) (Principal, error)

	// RolesOf returns the roles granted to a user.
	RolesOf(ctx context.Context, userID string) ([]string, error)

	// RoleClaims returns the additional claims bound to a role.
	RoleClaims(ctx context.Context, role string) ([]Claim, error)
}
