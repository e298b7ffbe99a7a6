package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"llaveo.org/internal/auth"
	"llaveo.org/internal/listing"
	"llaveo.org/internal/platform"
	"llaveo.org/internal/session"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (a *API) cookieBridge(w http.ResponseWriter, r *http.Request) *session.Bridge {
	storage := session.NewCookieStorage(w, r,
		session.WithSecure(a.cookieSecure),
		session.WithMaxAge(a.cookieMaxAge))
	return session.NewBridge(a.platform, storage)
}

// identity resolves the requesting account: Bearer token first, cookie
// session otherwise. Returns (nil, nil) for anonymous requests; errors only
// on platform failure.
func (a *API) identity(w http.ResponseWriter, r *http.Request) (*platform.User, error) {
	if token := bearerToken(r); token != "" {
		user, err := a.platform.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, platform.ErrInvalidToken) {
				return nil, nil
			}
			return nil, err
		}
		return user, nil
	}
	return a.cookieBridge(w, r).User(r.Context())
}

// requireIdentity authenticates the request and loads (creating if needed)
// the role-bearing profile. On failure the response is already written and
// nil is returned.
func (a *API) requireIdentity(w http.ResponseWriter, r *http.Request) *auth.Identity {
	user, err := a.identity(w, r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "authentication backend unavailable")
		return nil
	}
	if user == nil {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil
	}

	profile, err := a.svc.EnsureProfile(r.Context(), listing.Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.MetadataString("full_name", "name"),
		AvatarURL: user.MetadataString("avatar_url", "picture"),
	})
	if err != nil {
		writeError(w, r, http.StatusForbidden, "profile required")
		return nil
	}

	return &auth.Identity{
		ID:        profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		Role:      profile.Role,
	}
}

// requireRole is requireIdentity plus the role check. JSON surface: denial
// is a structured 403.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, required auth.Role) *auth.Identity {
	ident := a.requireIdentity(w, r)
	if ident == nil {
		return nil
	}
	ctx := auth.ContextWithIdentity(r.Context(), ident)
	if err := auth.Protect(ctx, required); err != nil {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return nil
	}
	return ident
}
