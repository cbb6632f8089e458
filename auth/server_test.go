package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenServiceStub struct {
	err    error
	result RoleCheckResult
}

func (s tokenServiceStub) Login(_ context.Context, r LoginRequest) (TokenResponse, error) {
	if s.err != nil {
		return TokenResponse{}, s.err
	}

	return TokenResponse{Token: "token-" + r.UserName, TokenType: TokenTypeBearer, ExpiresIn: 900}, nil
}

func (s tokenServiceStub) ValidateRole(_ context.Context, token string, role string) RoleCheckResult {
	return s.result
}

func TestTokenServer_LoginHandler(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		server := TokenServer{Service: tokenServiceStub{}}

		r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"userName":"alice","password":"secret"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		server.LoginHandler(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.JSONEq(t, `{"access_token":"token-alice","token_type":"bearer","expires_in":900}`, w.Body.String())
	})

	t.Run("Form", func(t *testing.T) {
		server := TokenServer{Service: tokenServiceStub{}}

		form := url.Values{"userName": {"alice"}, "password": {"secret"}}

		r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		server.LoginHandler(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"access_token":"token-alice","token_type":"bearer","expires_in":900}`, w.Body.String())
	})

	t.Run("Error", func(t *testing.T) {
		testCases := []struct {
			name   string
			err    error
			body   string
			status int
		}{
			{"authentication failed", ErrAuthenticationFailed, `{"userName":"alice","password":"wrong"}`, http.StatusUnauthorized},
			{"missing password", nil, `{"userName":"alice"}`, http.StatusBadRequest},
			{"malformed body", nil, `{"userName":`, http.StatusBadRequest},
			{"store failure", errors.New("connection refused"), `{"userName":"alice","password":"secret"}`, http.StatusInternalServerError},
		}

		for _, testCase := range testCases {
			testCase := testCase

			t.Run(testCase.name, func(t *testing.T) {
				server := TokenServer{Service: tokenServiceStub{err: testCase.err}}

				r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(testCase.body))
				r.Header.Set("Content-Type", "application/json")
				w := httptest.NewRecorder()

				server.LoginHandler(w, r)

				assert.Equal(t, testCase.status, w.Code)
				assert.NotContains(t, w.Body.String(), "connection refused")
			})
		}
	})
}

func TestTokenServer_ValidateRoleHandler(t *testing.T) {
	server := TokenServer{Service: tokenServiceStub{result: RoleNotFound}}

	r := httptest.NewRequest(http.MethodPost, "/auth/validate-role", strings.NewReader(`{"token":"t","role":"User"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.ValidateRoleHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"No roles in token"}`, w.Body.String())

	r = httptest.NewRequest(http.MethodPost, "/auth/validate-role", strings.NewReader(`{"token":"t"}`))
	r.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()

	server.ValidateRoleHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenServer_MeHandler(t *testing.T) {
	server := TokenServer{}

	t.Run("OK", func(t *testing.T) {
		claims := ClaimSet{NewClaim(ClaimSubject, "user-1"), NewClaim(ClaimRole, RoleUser)}

		r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		r = r.WithContext(ContextWithClaims(r.Context(), claims))
		w := httptest.NewRecorder()

		server.MeHandler(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"type":"sub","value":"user-1"},{"type":"role","value":"User"}]`, w.Body.String())
	})

	t.Run("Unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		w := httptest.NewRecorder()

		server.MeHandler(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type healthCheckerStub struct {
	err error
}

func (h healthCheckerStub) HealthCheck(_ context.Context) error {
	return h.err
}

func TestTokenServer_HealthHandler(t *testing.T) {
	testCases := []struct {
		name   string
		health HealthChecker
		status int
		body   string
	}{
		{"no dependencies", nil, http.StatusOK, "ok"},
		{"healthy", healthCheckerStub{}, http.StatusOK, "ok"},
		{"unhealthy", healthCheckerStub{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			server := TokenServer{Health: testCase.health}

			w := httptest.NewRecorder()

			server.HealthHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, testCase.status, w.Code)
			assert.Equal(t, testCase.body, w.Body.String())
		})
	}
}
