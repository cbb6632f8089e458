package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRole(t *testing.T) {
	issued := ClaimSet{
		NewClaim(ClaimSubject, "alice"),
		NewClaim(ClaimName, "alice"),
		NewClaim(ClaimRole, "User"),
	}

	roleFirst := ClaimSet{
		NewClaim(ClaimRole, "User"),
		NewClaim(ClaimRole, "Administrator"),
		NewClaim(ClaimSubject, "alice"),
	}

	testCases := []struct {
		name     string
		claims   ClaimSet
		role     string
		mode     RoleMatchMode
		expected RoleCheckResult
	}{
		{"empty", nil, "User", RoleMatchFirstClaim, TokenInvalid},
		{"empty, full scan", ClaimSet{}, "User", RoleMatchFullScan, TokenInvalid},
		{"subject first", issued, "User", RoleMatchFirstClaim, RoleNotFound},
		{"subject first, full scan", issued, "User", RoleMatchFullScan, Authorized},
		{"role first", roleFirst, "User", RoleMatchFirstClaim, Authorized},
		{"role first, second role", roleFirst, "Administrator", RoleMatchFirstClaim, RoleNotFound},
		{"role first, second role, full scan", roleFirst, "Administrator", RoleMatchFullScan, Authorized},
		{"case sensitive", roleFirst, "user", RoleMatchFullScan, RoleNotFound},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, CheckRole(testCase.claims, testCase.role, testCase.mode))
		})
	}
}

func TestRoleCheckResult_String(t *testing.T) {
	assert.Equal(t, "Authorized", Authorized.String())
	assert.Equal(t, "No roles in token", RoleNotFound.String())
	assert.Equal(t, "Token cannot be validated", TokenInvalid.String())

	data, err := json.Marshal(ValidateRoleResponse{Result: RoleNotFound})
	require.NoError(t, err)

	assert.JSONEq(t, `{"result":"No roles in token"}`, string(data))
}

func TestVerificationError(t *testing.T) {
	err := &VerificationError{Reason: VerificationExpired}

	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Equal(t, VerificationExpired, VerificationReasonOf(err))
	assert.Equal(t, VerificationMalformed, VerificationReasonOf(ErrConfiguration))
}
