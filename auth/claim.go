package auth

// Claim types
const (
	// ClaimName carries the user name of the principal.
	ClaimName = "unique_name"

	// ClaimGivenName carries the first name of the principal.
	ClaimGivenName = "given_name"

	// ClaimSurname carries the last name of the principal.
	ClaimSurname = "family_name"

	// ClaimRole carries a role granted to the principal.
	// A principal may hold any number of role claims.
	ClaimRole = "role"

	// ClaimTenantID carries the tenant (company) the token was issued for.
	ClaimTenantID = "COM_ID"
)

// Registered claim types
const (
	ClaimSubject   = "sub"
	ClaimID        = "jti"
	ClaimIssuedAt  = "iat"
	ClaimNotBefore = "nbf"
	ClaimExpiresAt = "exp"
	ClaimIssuer    = "iss"
	ClaimAudience  = "aud"
)

// Claim is a typed fact about an authenticated principal.
type Claim struct {
	Type  string
	Value string
}

// NewClaim returns a new Claim.
func NewClaim(typ string, value string) Claim {
	return Claim{
		Type:  typ,
		Value: value,
	}
}

// ClaimSet is an ordered list of claims.
//
// Order is significant: it is preserved from construction through the token wire format and back,
// and role validation inspects claims in this order.
// A claim type may appear more than once (eg. multiple roles).
type ClaimSet []Claim

// Values returns every value stored under a claim type, in order.
func (s ClaimSet) Values(typ string) []string {
	var values []string

	for _, claim := range s {
		if claim.Type == typ {
			values = append(values, claim.Value)
		}
	}

	return values
}

// First returns the first value stored under a claim type.
func (s ClaimSet) First(typ string) (string, bool) {
	for _, claim := range s {
		if claim.Type == typ {
			return claim.Value, true
		}
	}

	return "", false
}

// Has reports whether the set contains a claim with the given type and value.
func (s ClaimSet) Has(typ string, value string) bool {
	for _, claim := range s {
		if claim.Type == typ && claim.Value == value {
			return true
		}
	}

	return false
}

// Roles returns the values of every role claim.
func (s ClaimSet) Roles() []string {
	return s.Values(ClaimRole)
}

// Subject returns the subject claim.
func (s ClaimSet) Subject() string {
	v, _ := s.First(ClaimSubject)

	return v
}

// TenantID returns the tenant claim.
func (s ClaimSet) TenantID() string {
	v, _ := s.First(ClaimTenantID)

	return v
}
