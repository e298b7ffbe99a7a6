package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"llaveo.org/internal/obs"
	"llaveo.org/internal/platform"
)

// ErrIncompleteTokens indicates a submitted pair is missing one of its halves.
var ErrIncompleteTokens = errors.New("session: both access and refresh tokens are required")

// Bridge moves sessions between token storage and the auth platform. The
// server constructs one per request over a CookieStorage; tests and the
// client hydrator use it over MemoryStorage.
type Bridge struct {
	client  *platform.Client
	storage platform.TokenStorage
}

// NewBridge wires a platform client to a storage backend.
func NewBridge(client *platform.Client, storage platform.TokenStorage) *Bridge {
	return &Bridge{client: client, storage: storage}
}

// Session returns the stored token pair, or nil when no complete session is
// persisted. A corrupt or partial stored value reads as no session.
func (b *Bridge) Session() *platform.Session {
	raw, ok := b.storage.GetItem(CookieName)
	if !ok || raw == "" {
		return nil
	}
	var sess platform.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil
	}
	if !sess.Complete() {
		return nil
	}
	return &sess
}

// User resolves the stored session to its account, verifying the access
// token with the platform client.
func (b *Bridge) User(ctx context.Context) (*platform.User, error) {
	sess := b.Session()
	if sess == nil {
		return nil, nil
	}
	user, err := b.client.Authenticate(ctx, sess.AccessToken)
	if err != nil {
		if errors.Is(err, platform.ErrInvalidToken) {
			// Expired access token. Try the refresh half before giving up.
			return b.refresh(ctx, sess.RefreshToken)
		}
		return nil, err
	}
	return user, nil
}

func (b *Bridge) refresh(ctx context.Context, refreshToken string) (*platform.User, error) {
	rotated, err := b.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		// Refresh chain is dead. Drop the stored pair so subsequent
		// requests read as anonymous instead of retrying forever.
		_ = b.storage.RemoveItem(CookieName)
		return nil, nil
	}
	if err := b.persist(rotated); err != nil {
		return nil, err
	}
	return b.client.Authenticate(ctx, rotated.AccessToken)
}

// SetSession validates a submitted token pair with the platform and, on
// success, persists it. Forged or partial pairs never reach storage.
func (b *Bridge) SetSession(ctx context.Context, accessToken, refreshToken string) (*platform.Session, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return nil, ErrIncompleteTokens
	}
	// Exchanging the refresh token proves the pair came from the platform.
	sess, err := b.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := b.persist(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Clear signs out on the platform and removes the stored pair. Both halves
// are always attempted; a platform failure must not leave the cookie behind.
func (b *Bridge) Clear(ctx context.Context) {
	if sess := b.Session(); sess != nil {
		if err := b.client.SignOut(ctx, sess.AccessToken); err != nil {
			obs.Log("warn", "session_signout_failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
	_ = b.storage.RemoveItem(CookieName)
}

func (b *Bridge) persist(sess *platform.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return b.storage.SetItem(CookieName, string(raw))
}
