package shared

import "context"

// Identity describes the authenticated admin attached to a request.
type Identity struct {
	AdminID int64
	LoginID string
	Role    string
}

// IsSuperAdmin reports whether the identity carries the superadmin role.
func (i Identity) IsSuperAdmin() bool {
	return i.Role == "SUPERADMIN"
}

type identityContextKey struct{}

// ContextWithIdentity stores the authenticated identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
