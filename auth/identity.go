package auth

// ClaimsIdentity is the set of claims describing an authenticated principal.
//
// A ClaimsIdentity is built once per login and consumed by a TokenCodec to produce a single token.
type ClaimsIdentity struct {
	Claims ClaimSet
}

// BuildClaimsIdentity assembles the claims of an authenticated principal.
//
// The identity always contains the name, given name and surname of the principal,
// followed by one role claim per entry in roles (duplicates are kept)
// and every entry of extraClaims verbatim.
func BuildClaimsIdentity(principal Principal, roles []string, extraClaims []Claim) ClaimsIdentity {
	claims := make(ClaimSet, 0, 3+len(roles)+len(extraClaims))

	claims = append(claims,
		NewClaim(ClaimName, principal.UserName),
		NewClaim(ClaimGivenName, principal.FirstName),
		NewClaim(ClaimSurname, principal.LastName),
	)

	for _, role := range roles {
		claims = append(claims, NewClaim(ClaimRole, role))
	}

	claims = append(claims, extraClaims...)

	return ClaimsIdentity{
		Claims: claims,
	}
}
