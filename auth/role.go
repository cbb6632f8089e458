package auth

// RoleCheckResult is the outcome of validating a role against a token.
type RoleCheckResult int

const (
	// TokenInvalid means the token failed verification.
	TokenInvalid RoleCheckResult = iota

	// RoleNotFound means the token is valid, but the requested role was not found.
	// This is a policy denial, not an authentication failure.
	RoleNotFound

	// Authorized means the token is valid and carries the requested role.
	Authorized
)

// String returns the message historically reported to callers for each result.
func (r RoleCheckResult) String() string {
	switch r {
	case Authorized:
		return "Authorized"
	case RoleNotFound:
		return "No roles in token"
	default:
		return "Token cannot be validated"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r RoleCheckResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// RoleMatchMode selects how CheckRole looks for role claims.
type RoleMatchMode int

const (
	// RoleMatchFirstClaim only inspects the first claim of the set:
	// if it is a role claim, its value decides; otherwise the role is not found.
	//
	// Tokens issued by Encode start with the subject claim,
	// so this mode reports RoleNotFound for them unless the claim set was assembled with a leading role claim.
	RoleMatchFirstClaim RoleMatchMode = iota

	// RoleMatchFullScan looks at every role claim in the set.
	RoleMatchFullScan
)

// CheckRole decides whether a verified claim set grants role.
//
// A set without any claims cannot come from a verified token and yields TokenInvalid.
func CheckRole(claims ClaimSet, role string, mode RoleMatchMode) RoleCheckResult {
	if len(claims) == 0 {
		return TokenInvalid
	}

	if mode == RoleMatchFullScan {
		if claims.Has(ClaimRole, role) {
			return Authorized
		}

		return RoleNotFound
	}

	first := claims[0]
	if first.Type == ClaimRole && first.Value == role {
		return Authorized
	}

	return RoleNotFound
}
