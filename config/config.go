package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tenant-auth/auth/auth"
	"github.com/tenant-auth/auth/auth/authz"
)

// Config collects all configuration options.
type Config struct {
	Issuer          TokenIssuer     `yaml:"issuer"`
	CredentialStore CredentialStore `yaml:"credentialStore"`
	Policies        []Policy        `yaml:"policies"`
	RoleValidation  RoleValidation  `yaml:"roleValidation"`

	// DefaultTenantID is embedded in tokens of users without a tenant.
	DefaultTenantID string `yaml:"defaultTenantID"`
}

// Policy registers an access policy in addition to the built-in ones.
type Policy struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// RoleValidation configures how role validation looks for role claims.
type RoleValidation struct {
	// FullScan makes role validation consider every role claim instead of the first claim only.
	FullScan bool `yaml:"fullScan"`
}

// Load reads a YAML configuration file.
func Load(file string) (Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", auth.ErrConfiguration, err)
	}

	return config, nil
}

// Validate validates the configuration.
// Every error wraps auth.ErrConfiguration.
func (c Config) Validate() error {
	if c.Issuer.Type == "" {
		return fmt.Errorf("%w: issuer type is required", auth.ErrConfiguration)
	}

	if err := c.Issuer.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrConfiguration, err)
	}

	if c.CredentialStore.Type == "" {
		return fmt.Errorf("%w: credential store type is required", auth.ErrConfiguration)
	}

	if err := c.CredentialStore.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", auth.ErrConfiguration, err)
	}

	for i, policy := range c.Policies {
		if policy.Name == "" {
			return fmt.Errorf("%w: policies[%d]: name is required", auth.ErrConfiguration, i)
		}

		if policy.Role == "" {
			return fmt.Errorf("%w: policies[%d]: role is required", auth.ErrConfiguration, i)
		}
	}

	return nil
}

// RoleMatchMode returns the configured role matching mode.
func (c Config) RoleMatchMode() auth.RoleMatchMode {
	if c.RoleValidation.FullScan {
		return auth.RoleMatchFullScan
	}

	return auth.RoleMatchFirstClaim
}

// CreatePolicyRegistry returns the built-in policies extended with the configured ones.
func (c Config) CreatePolicyRegistry(logger *zap.Logger) (*authz.PolicyRegistry, error) {
	registry := authz.DefaultPolicyRegistry()
	registry.Logger = logger

	for _, policy := range c.Policies {
		if err := registry.Register(policy.Name, policy.Role); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// rawConfig is a general struct to be used by other config structs to unmarshal yaml config first.
type rawConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config"`
}

// decode decodes the generic config section of a rawConfig into a factory.
func decode(input map[string]interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           output,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
