// Package auth covers bearer-token authentication: JWT issue and verify,
// bcrypt password hashing and an in-memory revocation list with per-user
// token tracking.
package auth

import "context"

type contextKey string

const principalContextKey contextKey = "principal"

// SystemPrincipal is the auditor recorded for unauthenticated requests and
// background work.
const SystemPrincipal = "system"

// WithPrincipal stores the authenticated user's email in the context.
func WithPrincipal(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, principalContextKey, email)
}

// Principal returns the authenticated email, or "system" when the request
// carries no identity.
func Principal(ctx context.Context) string {
	if email, ok := ctx.Value(principalContextKey).(string); ok && email != "" {
		return email
	}
	return SystemPrincipal
}
