package authz

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tenant-auth/auth/auth"
)

// TokenDecoder verifies a token and returns its claims.
type TokenDecoder interface {
	Decode(token string) (auth.ClaimSet, error)
}

// RequirePolicy returns a middleware admitting requests whose bearer token satisfies a policy.
//
// The policy is resolved once: an unknown name is a configuration error.
// Requests without a valid token are rejected with 401, requests denied by the policy with 403.
// Admitted requests carry the verified claims in their context (see auth.ClaimsFromContext).
func RequirePolicy(registry *PolicyRegistry, name string, decoder TokenDecoder, logger *zap.Logger) (mux.MiddlewareFunc, error) {
	policy, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	logger = logger.With(zap.String("policy", policy.Name))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized)

				return
			}

			claims, err := decoder.Decode(token)
			if err != nil {
				logger.Debug(
					"rejecting token",
					zap.String("reason", string(auth.VerificationReasonOf(err))),
					zap.Error(err),
				)

				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeError(w, http.StatusUnauthorized)

				return
			}

			if evaluate(policy, claims.Roles()) == auth.Deny {
				logger.Debug("access denied", zap.String("subject", claims.Subject()))

				writeError(w, http.StatusForbidden)

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(auth.ErrorResponse{Error: http.StatusText(status)})
}
