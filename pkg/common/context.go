package common

import "context"

// ContextKey represents a context key type
type ContextKey string

// ContextKeyOwner holds the authenticated document owner
const ContextKeyOwner ContextKey = "owner"

// WithOwner stores the authenticated document owner
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ContextKeyOwner, owner)
}

// GetOwner extracts the authenticated document owner; empty owners do not count
func GetOwner(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ContextKeyOwner).(string)
	return owner, ok && owner != ""
}
