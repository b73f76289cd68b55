package api

import "context"

type contextKey string

// currentUserKey carries the verified session claims through the request
// context from the authentication middleware to the handlers.
const currentUserKey contextKey = "currentUser"

// WithClaims returns a context carrying the verified session claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, currentUserKey, claims)
}

// ClaimsFromContext extracts the verified session claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(currentUserKey).(*Claims)
	return claims, ok
}
