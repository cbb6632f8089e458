package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tenant-auth/auth/auth"
	"github.com/tenant-auth/auth/auth/token/jwt"
)

// SigningKeyEnv overrides the configured HMAC signing key when set.
const SigningKeyEnv = "TOKENAUTH_SIGNING_KEY"

// TokenIssuer is the configuration for an auth.TokenCodec.
type TokenIssuer struct {
	Type   string
	Config TokenIssuerFactory
}

func (c *TokenIssuer) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	var config TokenIssuerFactory

	switch rawConfig.Type {
	case "jwt":
		var factory jwtTokenIssuer

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return fmt.Errorf("issuer: jwt: %w", err)
		}

		config = factory

	default:
		return fmt.Errorf("unknown issuer type: %s", rawConfig.Type)
	}

	c.Type = rawConfig.Type
	c.Config = config

	return nil
}

// TokenIssuerFactory creates a new auth.TokenCodec.
type TokenIssuerFactory interface {
	CreateTokenCodec(logger *zap.Logger) (auth.TokenCodec, error)
	Validate() error
}

type jwtTokenIssuer struct {
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	Algorithm      string        `mapstructure:"algorithm"`
	SigningKey     string        `mapstructure:"signingKey"`
	SigningKeyFile string        `mapstructure:"signingKeyFile"`
	ValidFor       time.Duration `mapstructure:"validFor"`
	ClockSkew      time.Duration `mapstructure:"clockSkew"`
	IDGenerator    string        `mapstructure:"idGenerator"`
}

var supportedAlgorithms = map[string]bool{
	"":      true,
	"HS256": true,
	"RS256": true,
	"ES256": true,
	"ES384": true,
	"ES512": true,
}

func (c jwtTokenIssuer) signingKey() string {
	if key := os.Getenv(SigningKeyEnv); key != "" {
		return key
	}

	return c.SigningKey
}

func (c jwtTokenIssuer) CreateTokenCodec(logger *zap.Logger) (auth.TokenCodec, error) {
	var signingKey jwt.SigningKey

	if key := c.signingKey(); key != "" {
		signingKey = jwt.HMACKey(key)
	} else {
		key, err := jwt.LoadLibtrustKey(c.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: issuer: jwt: loading signing key: %w", auth.ErrConfiguration, err)
		}

		signingKey = key
	}

	if c.Algorithm != "" && signingKey.SigningMethod() != nil && signingKey.SigningMethod().Alg() != c.Algorithm {
		return nil, fmt.Errorf(
			"%w: issuer: jwt: algorithm %s does not match the signing key (%s)",
			auth.ErrConfiguration,
			c.Algorithm,
			signingKey.SigningMethod().Alg(),
		)
	}

	var idGenerator jwt.IDGenerator = jwt.UUIDGenerator{}
	if c.IDGenerator == "counter" {
		idGenerator = jwt.NewCounterGenerator("")
	}

	config := jwt.IssuerConfig{
		Issuer:      c.Issuer,
		Audience:    c.Audience,
		SigningKey:  signingKey,
		ValidFor:    c.ValidFor,
		ClockSkew:   c.ClockSkew,
		IDGenerator: idGenerator,
	}

	codec, err := jwt.NewCodec(config, jwt.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return codec, nil
}

func (c jwtTokenIssuer) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer: jwt: issuer is required")
	}

	if c.Audience == "" {
		return fmt.Errorf("issuer: jwt: audience is required")
	}

	if !supportedAlgorithms[c.Algorithm] {
		return fmt.Errorf("issuer: jwt: unsupported algorithm %s", c.Algorithm)
	}

	if c.signingKey() == "" && c.SigningKeyFile == "" {
		return fmt.Errorf("issuer: jwt: signingKey, signingKeyFile or %s is required", SigningKeyEnv)
	}

	if c.SigningKey != "" && c.SigningKeyFile != "" {
		return fmt.Errorf("issuer: jwt: signingKey and signingKeyFile are mutually exclusive")
	}

	if c.ValidFor <= 0 {
		return fmt.Errorf("issuer: jwt: validFor must be a positive duration")
	}

	if c.ClockSkew < 0 {
		return fmt.Errorf("issuer: jwt: clockSkew must not be negative")
	}

	switch c.IDGenerator {
	case "", "uuid", "counter":
	default:
		return fmt.Errorf("issuer: jwt: unknown id generator %s", c.IDGenerator)
	}

	return nil
}
