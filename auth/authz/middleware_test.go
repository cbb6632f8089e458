package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenant-auth/auth/auth"
)

type tokenDecoderStub struct {
	tokens map[string]auth.ClaimSet
}

func (d tokenDecoderStub) Decode(token string) (auth.ClaimSet, error) {
	claims, ok := d.tokens[token]
	if !ok {
		return nil, &auth.VerificationError{Reason: auth.VerificationInvalidSignature}
	}

	return claims, nil
}

func TestRequirePolicy(t *testing.T) {
	decoder := tokenDecoderStub{
		tokens: map[string]auth.ClaimSet{
			"user-token": {
				auth.NewClaim(auth.ClaimSubject, "user-1"),
				auth.NewClaim(auth.ClaimRole, auth.RoleUser),
			},
			"admin-token": {
				auth.NewClaim(auth.ClaimSubject, "user-2"),
				auth.NewClaim(auth.ClaimRole, auth.RoleAdministrator),
			},
		},
	}

	middleware, err := RequirePolicy(DefaultPolicyRegistry(), auth.UserPolicy, decoder, nil)
	require.NoError(t, err)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		require.True(t, ok)

		w.Write([]byte(claims.Subject()))
	}))

	testCases := []struct {
		name          string
		authorization string
		status        int
		body          string
	}{
		{"admitted", "Bearer user-token", http.StatusOK, "user-1"},
		{"lower case scheme", "bearer user-token", http.StatusOK, "user-1"},
		{"missing role", "Bearer admin-token", http.StatusForbidden, ""},
		{"invalid token", "Bearer forged-token", http.StatusUnauthorized, ""},
		{"missing token", "", http.StatusUnauthorized, ""},
		{"basic auth", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if testCase.authorization != "" {
				r.Header.Set("Authorization", testCase.authorization)
			}

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, testCase.status, w.Code)

			if testCase.body != "" {
				assert.Equal(t, testCase.body, w.Body.String())
			}
		})
	}
}

func TestRequirePolicy_UnknownPolicy(t *testing.T) {
	_, err := RequirePolicy(DefaultPolicyRegistry(), "AUDITOR_POLICY", tokenDecoderStub{}, nil)

	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
