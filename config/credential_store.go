package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"github.com/tenant-auth/auth/auth"
	"github.com/tenant-auth/auth/auth/authn"
	"github.com/tenant-auth/auth/auth/authn/sqlstore"
	"github.com/tenant-auth/auth/pkg/slices"
)

var (
	credentialStoreFactoriesMu sync.RWMutex
	credentialStoreFactories   = make(map[string]func() CredentialStoreFactory)
)

// RegisterCredentialStoreFactory makes a CredentialStoreFactory available by the provided name in configuration.
//
// If RegisterCredentialStoreFactory is called twice with the same name or if newFactory is nil,
// it panics.
func RegisterCredentialStoreFactory(name string, newFactory func() CredentialStoreFactory) {
	credentialStoreFactoriesMu.Lock()
	defer credentialStoreFactoriesMu.Unlock()

	if newFactory == nil {
		panic("registering credential store factory: factory is nil")
	}

	if _, dup := credentialStoreFactories[name]; dup {
		panic("registering credential store factory: registration called twice for factory " + name)
	}

	credentialStoreFactories[name] = newFactory
}

func init() {
	RegisterCredentialStoreFactory("static", func() CredentialStoreFactory { return &staticCredentialStore{} })
	RegisterCredentialStoreFactory("sql", func() CredentialStoreFactory { return &sqlCredentialStore{} })
}

// CredentialStore is the configuration for an auth.CredentialStore.
type CredentialStore struct {
	Type   string
	Config CredentialStoreFactory
}

func (c *CredentialStore) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	credentialStoreFactoriesMu.RLock()
	newFactory, ok := credentialStoreFactories[rawConfig.Type]
	credentialStoreFactoriesMu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown credential store type: %s", rawConfig.Type)
	}

	factory := newFactory()

	err = decode(rawConfig.Config, factory)
	if err != nil {
		return fmt.Errorf("credential store: %s: %w", rawConfig.Type, err)
	}

	c.Type = rawConfig.Type
	c.Config = factory

	return nil
}

// CredentialStoreFactory creates a new auth.CredentialStore.
type CredentialStoreFactory interface {
	CreateCredentialStore(ctx context.Context, logger *zap.Logger) (auth.CredentialStore, error)
	Validate() error
}

type staticCredentialStore struct {
	Users      []user             `mapstructure:"users"`
	RoleClaims map[string][]claim `mapstructure:"roleClaims"`
}

type user struct {
	Enabled      bool     `mapstructure:"enabled"`
	ID           string   `mapstructure:"id"`
	Username     string   `mapstructure:"username"`
	PasswordHash string   `mapstructure:"passwordHash"`
	FirstName    string   `mapstructure:"firstName"`
	LastName     string   `mapstructure:"lastName"`
	TenantID     string   `mapstructure:"tenantID"`
	Roles        []string `mapstructure:"roles"`
}

type claim struct {
	Type  string `mapstructure:"type"`
	Value string `mapstructure:"value"`
}

func (c *staticCredentialStore) CreateCredentialStore(_ context.Context, _ *zap.Logger) (auth.CredentialStore, error) {
	users := slices.Map(c.Users, func(v user) authn.User {
		return authn.User{
			Enabled:      v.Enabled,
			ID:           v.ID,
			Username:     v.Username,
			PasswordHash: v.PasswordHash,
			FirstName:    v.FirstName,
			LastName:     v.LastName,
			TenantID:     v.TenantID,
			Roles:        v.Roles,
		}
	})

	roleClaims := make(map[string][]auth.Claim, len(c.RoleClaims))

	for _, role := range maps.Keys(c.RoleClaims) {
		roleClaims[role] = slices.Map(c.RoleClaims[role], func(v claim) auth.Claim {
			return auth.NewClaim(v.Type, v.Value)
		})
	}

	return authn.NewUserStore(users, roleClaims), nil
}

func (c *staticCredentialStore) Validate() error {
	usernames := make(map[string]bool, len(c.Users))
	ids := make(map[string]bool, len(c.Users))

	for i, entry := range c.Users {
		if entry.Username == "" {
			return fmt.Errorf("credential store: static: users[%d]: username is required", i)
		}

		if entry.PasswordHash == "" {
			return fmt.Errorf("credential store: static: users[%d]: password hash is required", i)
		}

		if usernames[entry.Username] {
			return fmt.Errorf("credential store: static: users[%d]: duplicate username %q", i, entry.Username)
		}

		usernames[entry.Username] = true

		// users without an ID are identified by their username
		id := entry.ID
		if id == "" {
			id = entry.Username
		}

		if ids[id] {
			return fmt.Errorf("credential store: static: users[%d]: duplicate id %q", i, id)
		}

		ids[id] = true
	}

	for role, claims := range c.RoleClaims {
		for i, claim := range claims {
			if claim.Type == "" {
				return fmt.Errorf("credential store: static: roleClaims[%s][%d]: type is required", role, i)
			}
		}
	}

	return nil
}

type sqlCredentialStore struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

func (c *sqlCredentialStore) CreateCredentialStore(ctx context.Context, logger *zap.Logger) (auth.CredentialStore, error) {
	db, err := sqlstore.Open(ctx, c.DSN)
	if err != nil {
		return nil, err
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}

	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}

	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}

	return sqlstore.New(db, logger), nil
}

func (c *sqlCredentialStore) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("credential store: sql: dsn is required")
	}

	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		return fmt.Errorf("credential store: sql: connection pool settings must not be negative")
	}

	return nil
}
