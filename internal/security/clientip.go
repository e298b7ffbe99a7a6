package security

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ClientIP resolves the request's client address for rate-limit keying.
//
// Precedence: the CDN-injected CF-Connecting-IP is trusted unconditionally.
// Generic proxy headers (X-Real-IP, X-Forwarded-For, Forwarded) are
// client-spoofable and consulted only when opts.TrustProxyHeaders is set.
// With proxy trust disabled, a configured edge header is tried; failing
// everything, a stable fingerprint of User-Agent + Accept-Language keeps
// unrelated anonymous clients from sharing one rate-limit bucket.
func ClientIP(r *http.Request, opts Options) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if opts.TrustProxyHeaders {
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
				return first
			}
		}
		if ip := forwardedFor(r.Header.Get("Forwarded")); ip != "" {
			return ip
		}
	}

	if opts.EdgeIPHeader != "" {
		if ip := strings.TrimSpace(r.Header.Get(opts.EdgeIPHeader)); ip != "" {
			return ip
		}
	}

	ua := r.Header.Get("User-Agent")
	lang := r.Header.Get("Accept-Language")
	if ua == "" && lang == "" {
		return "anonymous"
	}
	sum := xxhash.Sum64String(ua + "|" + lang)
	return "fp-" + fmt.Sprintf("%016x", sum)[:12]
}

// forwardedFor extracts the first for= parameter from an RFC 7239 Forwarded
// header, stripping quotes and IPv6 brackets.
func forwardedFor(header string) string {
	if header == "" {
		return ""
	}
	first := strings.Split(header, ",")[0]
	for _, part := range strings.Split(first, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(k, "for") {
			continue
		}
		v = strings.Trim(v, `"`)
		v = strings.TrimPrefix(v, "[")
		if i := strings.Index(v, "]"); i >= 0 {
			v = v[:i]
		}
		return strings.TrimSpace(v)
	}
	return ""
}

// IsHTTPS infers whether the request arrived over a secure transport. First
// matching signal wins; no signal means false. force overrides inference.
func IsHTTPS(r *http.Request, force bool) bool {
	if force {
		return true
	}
	if r.TLS != nil || r.URL.Scheme == "https" {
		return true
	}
	for _, name := range []string{"X-Forwarded-Proto", "X-Forwarded-Protocol"} {
		if v := r.Header.Get(name); v != "" {
			if strings.EqualFold(strings.TrimSpace(strings.Split(v, ",")[0]), "https") {
				return true
			}
		}
	}
	if fwd := r.Header.Get("Forwarded"); fwd != "" {
		if strings.Contains(strings.ToLower(fwd), "proto=https") {
			return true
		}
	}
	if visitor := r.Header.Get("CF-Visitor"); visitor != "" {
		var v struct {
			Scheme string `json:"scheme"`
		}
		if err := json.Unmarshal([]byte(visitor), &v); err == nil && v.Scheme == "https" {
			return true
		}
	}
	return false
}
