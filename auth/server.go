package auth

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

// Set a Decoder instance as a package global, because it caches
// meta-data about structs, and an instance can be shared safely.
var decoder = newFormDecoder()

// The same applies to the validator.
var validate = validator.New()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// ValidateRoleRequest asks whether a token grants a role.
type ValidateRoleRequest struct {
	Token string `json:"token" schema:"token" validate:"required"`
	Role  string `json:"role" schema:"role" validate:"required"`
}

// ValidateRoleResponse carries the outcome of a role validation.
type ValidateRoleResponse struct {
	Result RoleCheckResult `json:"result"`
}

// ErrorResponse is returned to clients on failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// TokenServer exposes a TokenService over HTTP.
type TokenServer struct {
	Service TokenService

	// Health is consulted by HealthHandler, if set.
	Health HealthChecker

	Logger *zap.Logger
}

func (s TokenServer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}

	return s.Logger
}

func (s TokenServer) handleError(err error, w http.ResponseWriter) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "login failure", Message: ErrAuthenticationFailed.Error()})
	case errors.As(err, &validationErrors), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
	default:
		s.logger().Error("request failed", zap.Error(err))

		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

var errBadRequest = errors.New("malformed request body")

// decodeRequest reads a JSON body or form values into v and validates the result.
func decodeRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(v)
		if err != nil {
			return errBadRequest
		}
	} else {
		err := r.ParseForm()
		if err != nil {
			return errBadRequest
		}

		err = decoder.Decode(v, r.Form)
		if err != nil {
			return errBadRequest
		}
	}

	return validate.Struct(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// LoginHandler issues a bearer token in exchange for a user name and password.
func (s TokenServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var loginRequest LoginRequest

	err := decodeRequest(r, &loginRequest)
	if err != nil {
		s.handleError(err, w)
		return
	}

	response, err := s.Service.Login(r.Context(), loginRequest)
	if err != nil {
		s.handleError(err, w)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, response)
}

// ValidateRoleHandler lets other services check whether a token issued by this service grants a role.
func (s TokenServer) ValidateRoleHandler(w http.ResponseWriter, r *http.Request) {
	var validateRequest ValidateRoleRequest

	err := decodeRequest(r, &validateRequest)
	if err != nil {
		s.handleError(err, w)
		return
	}

	result := s.Service.ValidateRole(r.Context(), validateRequest.Token, validateRequest.Role)

	writeJSON(w, http.StatusOK, ValidateRoleResponse{Result: result})
}

// ClaimResponse is a single claim as returned by MeHandler.
type ClaimResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// MeHandler returns the verified claims of the caller.
// It must be mounted behind a middleware that stores claims in the request context.
func (s TokenServer) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: http.StatusText(http.StatusUnauthorized)})
		return
	}

	response := make([]ClaimResponse, 0, len(claims))
	for _, claim := range claims {
		response = append(response, ClaimResponse{Type: claim.Type, Value: claim.Value})
	}

	writeJSON(w, http.StatusOK, response)
}

// HealthHandler reports whether the process is serving and its dependencies are reachable.
func (s TokenServer) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")

	if s.Health != nil {
		if err := s.Health.HealthCheck(r.Context()); err != nil {
			s.logger().Warn("health check failed", zap.Error(err))

			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unavailable"))

			return
		}
	}

	w.Write([]byte("ok"))
}
