// Package sqlstore verifies credentials stored in a PostgreSQL database.
//
// The store reads the following tables:
//
//	users(id, user_name, password_hash, first_name, last_name, enabled)
//	user_roles(user_id, role_name)
//	role_claims(role_name, claim_type, claim_value)
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenant-auth/auth/auth"
	"github.com/tenant-auth/auth/auth/authn"
)

const (
	selectUserQuery = `SELECT id, password_hash, first_name, last_name, enabled FROM users WHERE user_name = $1`

	selectRolesQuery = `SELECT role_name FROM user_roles WHERE user_id = $1 ORDER BY role_name`

	selectRoleClaimsQuery = `SELECT claim_type, claim_value FROM role_claims WHERE role_name = $1 ORDER BY claim_type, claim_value`
)

// Open opens a connection pool and checks that the database is reachable.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Store implements auth.CredentialStore on top of a SQL database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New returns a new Store.
func New(db *sql.DB, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return Store{
		db:     db,
		logger: logger,
	}
}

// Verify implements auth.CredentialStore.
func (s Store) Verify(ctx context.Context, userName string, password string) (auth.Principal, error) {
	var (
		principal    = auth.Principal{UserName: userName}
		passwordHash string
		firstName    sql.NullString
		lastName     sql.NullString
		enabled      bool
	)

	err := s.db.QueryRowContext(ctx, selectUserQuery, userName).Scan(&principal.ID, &passwordHash, &firstName, &lastName, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		// timing attack paranoia
		authn.CompareDummyHash(password)

		return auth.Principal{}, auth.ErrAuthenticationFailed
	} else if err != nil {
		return auth.Principal{}, fmt.Errorf("querying user: %w", err)
	}

	if !enabled {
		s.logger.Debug("disabled user attempted to log in", zap.String("userId", principal.ID))

		authn.CompareDummyHash(password)

		return auth.Principal{}, auth.ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return auth.Principal{}, auth.ErrAuthenticationFailed
	}

	principal.FirstName = firstName.String
	principal.LastName = lastName.String

	return principal, nil
}

// RolesOf implements auth.CredentialStore.
func (s Store) RolesOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectRolesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	var roles []string

	for rows.Next() {
		var role string

		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}

		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	return roles, nil
}

// RoleClaims implements auth.CredentialStore.
func (s Store) RoleClaims(ctx context.Context, role string) ([]auth.Claim, error) {
	rows, err := s.db.QueryContext(ctx, selectRoleClaimsQuery, role)
	if err != nil {
		return nil, fmt.Errorf("querying role claims: %w", err)
	}
	defer rows.Close()

	var claims []auth.Claim

	for rows.Next() {
		var claim auth.Claim

		if err := rows.Scan(&claim.Type, &claim.Value); err != nil {
			return nil, fmt.Errorf("scanning role claim: %w", err)
		}

		claims = append(claims, claim)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role claims: %w", err)
	}

	return claims, nil
}

// HealthCheck checks that the database is reachable.
func (s Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close closes the underlying connection pool.
func (s Store) Close() error {
	return s.db.Close()
}

var (
	_ auth.CredentialStore = Store{}
	_ auth.HealthChecker   = Store{}
)
