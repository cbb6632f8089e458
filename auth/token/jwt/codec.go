package jwt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tenant-auth/auth/auth"
)

// reservedClaims are set by the Codec and never copied from a ClaimsIdentity.
var reservedClaims = map[string]bool{
	auth.ClaimSubject:   true,
	auth.ClaimID:        true,
	auth.ClaimIssuedAt:  true,
	auth.ClaimNotBefore: true,
	auth.ClaimExpiresAt: true,
	auth.ClaimIssuer:    true,
	auth.ClaimAudience:  true,
	auth.ClaimTenantID:  true,
}

// Codec issues and verifies compact JWS tokens.
//
// A Codec holds no mutable state and is safe for concurrent use
// as long as its IDGenerator is.
type Codec struct {
	config IssuerConfig
	parser *jwt.Parser

	clock  clockwork.Clock
	logger *zap.Logger
}

// Option configures a Codec.
type Option interface {
	applyCodec(c *Codec)
}

type optionFunc func(c *Codec)

func (fn optionFunc) applyCodec(c *Codec) {
	fn(c)
}

// WithClock sets the clock used for issuing and verifying tokens.
func WithClock(clock clockwork.Clock) Option {
	return optionFunc(func(c *Codec) {
		c.clock = clock
	})
}

// WithLogger sets the logger of the Codec.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(c *Codec) {
		c.logger = logger
	})
}

// NewCodec validates config and returns a new Codec.
// It fails with an error wrapping auth.ErrConfiguration if config is invalid.
func NewCodec(config IssuerConfig, opts ...Option) (Codec, error) {
	if err := config.Validate(); err != nil {
		return Codec{}, err
	}

	c := Codec{
		config: config,
	}

	for _, opt := range opts {
		opt.applyCodec(&c)
	}

	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	if key, ok := config.SigningKey.(HMACKey); ok && key.Weak() {
		c.logger.Warn("hmac signing key is shorter than recommended", zap.Int("minLength", MinHMACKeyLength))
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{config.SigningKey.SigningMethod().Alg()}),
		jwt.WithIssuer(config.Issuer),
		jwt.WithAudience(config.Audience),
		jwt.WithLeeway(config.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)

	return c, nil
}

// Encode implements auth.TokenCodec.
//
// Claims are written in the following order: subject, token ID, issue time, tenant,
// the claims of identity, then not-before, expiry, issuer and audience.
func (c Codec) Encode(identity auth.ClaimsIdentity, subject string, tenantID string) (auth.AccessToken, error) {
	id, err := c.config.IDGenerator.GenerateID()
	if err != nil {
		return auth.AccessToken{}, fmt.Errorf("generating token id: %w", err)
	}

	now := c.clock.Now()
	issuedAt := strconv.FormatInt(now.Unix(), 10)
	expiresAt := strconv.FormatInt(now.Add(c.config.ValidFor).Unix(), 10)

	claims := make(auth.ClaimSet, 0, len(identity.Claims)+8)

	claims = append(claims,
		auth.NewClaim(auth.ClaimSubject, subject),
		auth.NewClaim(auth.ClaimID, id),
		auth.NewClaim(auth.ClaimIssuedAt, issuedAt),
		auth.NewClaim(auth.ClaimTenantID, tenantID),
	)

	for _, claim := range identity.Claims {
		if reservedClaims[claim.Type] {
			c.logger.Warn("dropping reserved claim from identity", zap.String("type", claim.Type))

			continue
		}

		claims = append(claims, claim)
	}

	claims = append(claims,
		auth.NewClaim(auth.ClaimNotBefore, issuedAt),
		auth.NewClaim(auth.ClaimExpiresAt, expiresAt),
		auth.NewClaim(auth.ClaimIssuer, c.config.Issuer),
		auth.NewClaim(auth.ClaimAudience, c.config.Audience),
	)

	signedToken, err := c.Sign(claims)
	if err != nil {
		return auth.AccessToken{}, err
	}

	return auth.AccessToken{
		Payload:   signedToken,
		ExpiresIn: c.config.ValidFor,
		IssuedAt:  now,
	}, nil
}

// Sign signs claims as they are, in order.
// Unlike Encode, it adds no claims: callers are responsible for the registered claims.
func (c Codec) Sign(claims auth.ClaimSet) (string, error) {
	key := c.config.SigningKey

	token := jwt.NewWithClaims(key.SigningMethod(), payload(claims))

	if kid := key.KeyID(); kid != "" {
		token.Header["kid"] = kid
	}

	signedToken, err := token.SignedString(key.SignKey())
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signedToken, nil
}

// Decode implements auth.TokenCodec.
func (c Codec) Decode(token string) (auth.ClaimSet, error) {
	var claims payload

	_, err := c.parser.ParseWithClaims(token, &claims, c.keyFunc)
	if err != nil {
		return nil, verificationError(err)
	}

	return auth.ClaimSet(claims), nil
}

func (c Codec) keyFunc(_ *jwt.Token) (any, error) {
	return c.config.SigningKey.VerifyKey(), nil
}

// ValidateRole decodes token and checks whether it grants role.
func (c Codec) ValidateRole(token string, role string, mode auth.RoleMatchMode) auth.RoleCheckResult {
	claims, err := c.Decode(token)
	if err != nil {
		return auth.TokenInvalid
	}

	return auth.CheckRole(claims, role, mode)
}

func verificationError(err error) error {
	reason := auth.VerificationMalformed

	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		reason = auth.VerificationInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		reason = auth.VerificationExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		reason = auth.VerificationNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		reason = auth.VerificationIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		reason = auth.VerificationAudienceMismatch
	}

	return &auth.VerificationError{
		Reason: reason,
		Err:    err,
	}
}

var _ auth.TokenCodec = Codec{}
