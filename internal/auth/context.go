package auth

import "context"

type contextKey string

// IdentityContextKey is where the verified identity lives in a request context.
const IdentityContextKey contextKey = "auth_identity"

// ContextWithIdentity returns a copy of ctx carrying the verified identity.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext returns the identity stored by ContextWithIdentity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(string)
	return identity, ok && identity != ""
}
