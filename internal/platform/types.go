package platform

import "errors"

// Session is the token pair issued by the auth platform. JSON tags match the
// platform's wire format; the same shape is persisted in the session cookie.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// Complete reports whether the pair carries both tokens. Partial pairs must
// never be persisted or pushed into a client.
func (s *Session) Complete() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// User is the platform's view of an authenticated account.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// MetadataString returns the first non-empty string value among the given
// metadata keys. OAuth providers disagree on field names (full_name vs name,
// avatar_url vs picture), so callers pass the candidates in order.
func (u *User) MetadataString(keys ...string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	for _, key := range keys {
		if v, ok := u.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

var (
	// ErrInvalidToken indicates the access or refresh token failed validation.
	ErrInvalidToken = errors.New("platform: invalid token")
	// ErrUnavailable indicates the platform could not be reached or answered
	// with a server error.
	ErrUnavailable = errors.New("platform: unavailable")
)
