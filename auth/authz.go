package auth

// Role names
const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

// Policy names
const (
	// AdministratorPolicy admits administrators only.
	AdministratorPolicy = "ADMINISTRATOR_POLICY"

	// UserPolicy admits authenticated users.
	UserPolicy = "USER_POLICY"
)

// AccessPolicy binds a policy name to the role it requires.
type AccessPolicy struct {
	Name         string
	RequiredRole string
}

// Decision is the outcome of a policy evaluation.
type Decision bool

const (
	Deny  Decision = false
	Admit Decision = true
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d {
		return "admit"
	}

	return "deny"
}

// PolicyEvaluator decides whether a set of granted roles satisfies a named policy.
type PolicyEvaluator interface {
	Evaluate(policyName string, grantedRoles []string) Decision
}
