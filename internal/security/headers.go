package security

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
)

// Context carries the per-request security signals derived once at the edge
// of the middleware chain. Immutable after creation.
type Context struct {
	IsHTTPS  bool
	CSPNonce string
}

// Options controls origin inference when deriving a Context.
type Options struct {
	// ForceHTTPS short-circuits HTTPS inference.
	ForceHTTPS bool
	// TrustProxyHeaders enables generic proxy header resolution for ClientIP.
	TrustProxyHeaders bool
	// EdgeIPHeader is a deployment-specific edge header consulted when proxy
	// trust is disabled.
	EdgeIPHeader string
	// WithNonce attaches a fresh CSP nonce to the context.
	WithNonce bool
}

// NewContext derives the request's security context.
func NewContext(r *http.Request, opts Options) Context {
	sc := Context{IsHTTPS: IsHTTPS(r, opts.ForceHTTPS)}
	if opts.WithNonce {
		sc.CSPNonce = newNonce()
	}
	return sc
}

func newNonce() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.StdEncoding.EncodeToString(b[:])
}

// Headers composes the response hardening header set for the given context.
// Pure function: same context, same headers.
func Headers(sc Context) map[string]string {
	scriptSrc := "script-src 'self' https://cdn.jsdelivr.net https://unpkg.com"
	styleSrc := "style-src 'self' https://fonts.googleapis.com"
	if sc.CSPNonce != "" {
		scriptSrc += " 'nonce-" + sc.CSPNonce + "'"
		styleSrc += " 'nonce-" + sc.CSPNonce + "'"
	}

	csp := strings.Join([]string{
		"default-src 'self'",
		scriptSrc,
		styleSrc,
		"font-src 'self' https://fonts.gstatic.com",
		"img-src 'self' data: https: blob:",
		"connect-src 'self' https://*.supabase.co wss://*.supabase.co",
		"frame-src 'none'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	headers := map[string]string{
		"Content-Security-Policy": csp,
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Permissions-Policy":      "camera=(), microphone=(), geolocation=(), interest-cohort=()",
	}
	if sc.IsHTTPS {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains; preload"
	}
	return headers
}

// Apply sets the composed header set on h. Applied to every outbound
// response, error responses included.
func Apply(h http.Header, sc Context) {
	for k, v := range Headers(sc) {
		h.Set(k, v)
	}
}
