package auth

import (
	"time"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"

// AccessToken is a signed, self-contained credential issued to a client.
//
// No server-side record is kept: the token itself carries the full authorization state.
type AccessToken struct {
	Payload string

	ExpiresIn time.Duration
	IssuedAt  time.Time
}

// TokenCodec turns a ClaimsIdentity into a signed token and verifies tokens presented by clients.
type TokenCodec interface {
	// Encode signs a token for subject in tenant tenantID carrying every claim of identity.
	Encode(identity ClaimsIdentity, subject string, tenantID string) (AccessToken, error)

	// Decode verifies a token and returns its claims in wire order.
	//
	// Verification failures are reported as *VerificationError.
	Decode(token string) (ClaimSet, error)
}
