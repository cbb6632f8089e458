package jwt

import (
	"fmt"
	"time"

	"github.com/tenant-auth/auth/auth"
)

// IssuerConfig describes how tokens are issued and verified.
//
// An IssuerConfig is constructed once at startup and must not be modified afterwards.
type IssuerConfig struct {
	// Issuer is written to and required in the "iss" claim.
	Issuer string

	// Audience is written to and required in the "aud" claim.
	Audience string

	// SigningKey signs issued tokens and verifies presented ones.
	SigningKey SigningKey

	// ValidFor is the lifetime of issued tokens.
	ValidFor time.Duration

	// ClockSkew is the tolerance applied to expiry and not-before checks.
	// Zero means exact-time comparison.
	ClockSkew time.Duration

	// IDGenerator produces the unique "jti" claim of every token.
	IDGenerator IDGenerator
}

// Validate checks that tokens can be issued with the configuration.
// Every error wraps auth.ErrConfiguration.
func (c IssuerConfig) Validate() error {
	if c.Issuer == "" {
		return configError("issuer is required")
	}

	if c.Audience == "" {
		return configError("audience is required")
	}

	if c.ValidFor <= 0 {
		return configError("validFor must be a positive duration")
	}

	if c.ClockSkew < 0 {
		return configError("clockSkew must not be negative")
	}

	if c.SigningKey == nil {
		return configError("signing key is required")
	}

	if err := c.SigningKey.Validate(); err != nil {
		return configError(err.Error())
	}

	if c.IDGenerator == nil {
		return configError("id generator is required")
	}

	return nil
}

func configError(msg string) error {
	return fmt.Errorf("%w: jwt issuer: %s", auth.ErrConfiguration, msg)
}
