package authz

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tenant-auth/auth/auth"
)

// ErrUnknownPolicy is returned when a policy name is not registered.
var ErrUnknownPolicy = errors.New("unknown policy")

// Policy is a registered access policy.
type Policy = auth.AccessPolicy

// PolicyRegistry maps policy names to the role each policy requires.
//
// The zero value is an empty registry ready to use.
// A PolicyRegistry must not be copied after first use.
type PolicyRegistry struct {
	// Logger receives denials of unknown policies.
	Logger *zap.Logger

	policies map[string]Policy

	initOnce sync.Once
	mu       sync.RWMutex
}

// DefaultPolicyRegistry returns a registry with the built-in policies:
// auth.AdministratorPolicy requires auth.RoleAdministrator, auth.UserPolicy requires auth.RoleUser.
func DefaultPolicyRegistry() *PolicyRegistry {
	r := &PolicyRegistry{}

	// registering constants into an empty registry cannot fail
	_ = r.Register(auth.AdministratorPolicy, auth.RoleAdministrator)
	_ = r.Register(auth.UserPolicy, auth.RoleUser)

	return r
}

func (r *PolicyRegistry) init() {
	r.initOnce.Do(func() {
		if r.policies == nil {
			r.policies = make(map[string]Policy)
		}
	})
}

func (r *PolicyRegistry) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}

	return r.Logger
}

// Register adds a policy requiring role.
//
// Registration is meant to happen at startup, before the registry is shared between requests.
func (r *PolicyRegistry) Register(name string, role string) error {
	if name == "" {
		return fmt.Errorf("%w: policy name is required", auth.ErrConfiguration)
	}

	if role == "" {
		return fmt.Errorf("%w: policy %s: required role is required", auth.ErrConfiguration, name)
	}

	r.init()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.policies[name]; dup {
		return fmt.Errorf("%w: policy %s is already registered", auth.ErrConfiguration, name)
	}

	r.policies[name] = Policy{
		Name:         name,
		RequiredRole: role,
	}

	return nil
}

// Lookup returns a registered policy.
func (r *PolicyRegistry) Lookup(name string) (Policy, error) {
	r.init()
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, ok := r.policies[name]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}

	return policy, nil
}

// Evaluate implements auth.PolicyEvaluator.
//
// It admits if any of grantedRoles equals the role required by the policy.
// Unknown policies are denied.
func (r *PolicyRegistry) Evaluate(policyName string, grantedRoles []string) auth.Decision {
	policy, err := r.Lookup(policyName)
	if err != nil {
		r.logger().Warn("denying access by unknown policy", zap.String("policy", policyName))

		return auth.Deny
	}

	return evaluate(policy, grantedRoles)
}

func evaluate(policy Policy, grantedRoles []string) auth.Decision {
	for _, role := range grantedRoles {
		if role == policy.RequiredRole {
			return auth.Admit
		}
	}

	return auth.Deny
}

var _ auth.PolicyEvaluator = (*PolicyRegistry)(nil)
