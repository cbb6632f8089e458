package auth

import "context"

type claimsContextKey struct{}

// ContextWithClaims returns a copy of ctx carrying the verified claims of the caller.
func ContextWithClaims(ctx context.Context, claims ClaimSet) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims of the caller, if any.
func ClaimsFromContext(ctx context.Context) (ClaimSet, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(ClaimSet)

	return claims, ok
}
