package auth

import (
	"errors"
	"fmt"
)

// ErrConfiguration is returned (wrapped) when a component is misconfigured.
// It is fatal at boot: the process must not start serving.
var ErrConfiguration = errors.New("invalid configuration")

// ErrTokenInvalid is returned (wrapped in a *VerificationError) when a token fails verification.
var ErrTokenInvalid = errors.New("token cannot be validated")

// VerificationReason categorizes token verification failures.
type VerificationReason string

const (
	VerificationMalformed        VerificationReason = "malformed"
	VerificationInvalidSignature VerificationReason = "invalid_signature"
	VerificationExpired          VerificationReason = "expired"
	VerificationNotYetValid      VerificationReason = "not_yet_valid"
	VerificationIssuerMismatch   VerificationReason = "issuer_mismatch"
	VerificationAudienceMismatch VerificationReason = "audience_mismatch"
)

// VerificationError describes why a token was rejected.
//
// Callers outside of the process should only ever see ErrTokenInvalid;
// the reason and the underlying error are meant for server-side logs.
type VerificationError struct {
	Reason VerificationReason
	Err    error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token verification failed (%s): %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("token verification failed (%s)", e.Reason)
}

// Unwrap returns the underlying error.
func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Is makes every VerificationError match ErrTokenInvalid.
func (e *VerificationError) Is(target error) bool {
	return target == ErrTokenInvalid
}

// VerificationReasonOf returns the reason of a verification failure,
// or VerificationMalformed if err does not carry one.
func VerificationReasonOf(err error) VerificationReason {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Reason
	}

	return VerificationMalformed
}
