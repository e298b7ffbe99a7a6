package auth

import "context"

// Identity is the authenticated viewer as attached to a request context by
// the authentication middleware. Role is empty when the account exists on
// the platform but has no profile row yet.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
	Role      Role
}

type ctxKey int

const identityKey ctxKey = 0

// ContextWithIdentity attaches the identity to the context.
func ContextWithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext returns the attached identity, or nil for anonymous
// requests.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}
