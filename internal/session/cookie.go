// Package session bridges the auth platform's token pair between the
// browser cookie jar and in-process consumers. The server side persists
// sessions in a single httpOnly cookie; the client side hydrates its state
// from the API and mirrors it into token storage.
package session

import (
	"net/http"
	"net/url"
	"time"

	"llaveo.org/internal/platform"
)

// CookieName is the single key under which the serialized session lives.
const CookieName = "llaveo-server-auth-token"

// DefaultCookieMaxAge matches the platform's refresh-token lifetime.
const DefaultCookieMaxAge = 14 * 24 * time.Hour

// CookieStorage adapts an HTTP request/response pair to platform.TokenStorage.
// Reads come from the request's cookie jar, writes become Set-Cookie headers
// on the response. Values are URL-encoded so the JSON payload survives the
// cookie value grammar byte for byte.
type CookieStorage struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
	maxAge time.Duration
}

// CookieOption configures CookieStorage.
type CookieOption func(*CookieStorage)

// WithSecure marks written cookies Secure. Enable whenever the deployment
// terminates TLS.
func WithSecure(secure bool) CookieOption {
	return func(c *CookieStorage) { c.secure = secure }
}

// WithMaxAge overrides the cookie lifetime.
func WithMaxAge(d time.Duration) CookieOption {
	return func(c *CookieStorage) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// NewCookieStorage wraps a request/response pair.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, opts ...CookieOption) *CookieStorage {
	c := &CookieStorage{r: r, w: w, maxAge: DefaultCookieMaxAge}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CookieStorage) GetItem(key string) (string, bool) {
	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", false
	}
	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		// Malformed cookie. Treat as absent so the caller falls back to
		// the anonymous path instead of erroring the whole request.
		return "", false
	}
	return decoded, true
}

func (c *CookieStorage) SetItem(key, value string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *CookieStorage) RemoveItem(key string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

var _ platform.TokenStorage = (*CookieStorage)(nil)
