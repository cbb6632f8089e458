package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildClaimsIdentity(t *testing.T) {
	principal := Principal{
		ID:        "user-1",
		UserName:  "alice",
		FirstName: "Alice",
		LastName:  "Smith",
	}

	t.Run("OK", func(t *testing.T) {
		identity := BuildClaimsIdentity(
			principal,
			[]string{"User", "Administrator", "User"},
			[]Claim{NewClaim("permission", "tickets.read")},
		)

		expected := ClaimSet{
			NewClaim(ClaimName, "alice"),
			NewClaim(ClaimGivenName, "Alice"),
			NewClaim(ClaimSurname, "Smith"),
			NewClaim(ClaimRole, "User"),
			NewClaim(ClaimRole, "Administrator"),
			NewClaim(ClaimRole, "User"),
			NewClaim("permission", "tickets.read"),
		}

		assert.Equal(t, expected, identity.Claims)
	})

	t.Run("NoRoles", func(t *testing.T) {
		identity := BuildClaimsIdentity(principal, nil, nil)

		assert.Len(t, identity.Claims, 3)
		assert.Empty(t, identity.Claims.Roles())
	})
}
