package auth

import "context"

// Protect checks the context's identity against a required role. The checks
// run in order: no identity, then no profile role, then insufficient rank.
// Every failure mode denies; there is no permissive fallback.
func Protect(ctx context.Context, required Role) error {
	ident := IdentityFromContext(ctx)
	if ident == nil || ident.ID == "" {
		return ErrUnauthenticated
	}
	if ident.Role == "" {
		return ErrProfileRequired
	}
	if !ident.Role.HasAccess(required) {
		return ErrForbidden
	}
	return nil
}
