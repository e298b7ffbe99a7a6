package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"llaveo.org/internal/listing"
	"llaveo.org/internal/obs"
	"llaveo.org/internal/security"
)

// Per-endpoint fixed windows, per client key. The global token bucket in the
// middleware chain runs first; these budgets shape individual surfaces.
const (
	rateWindow = 15 * time.Minute

	searchRateMax        = 120
	favoritesReadRateMax = 60
	favoritesWriteRate   = 30
	inquiryRateMax       = 10
	sessionRateMax       = 60
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSecureJSON is writeJSON plus cache busting. API responses are
// per-user and must never be cached by the browser or intermediaries.
func writeSecureJSON(w http.ResponseWriter, code int, v any) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	writeJSON(w, code, v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeErrorDetails(w, r, code, msg, nil)
}

// writeErrorDetails embeds optional details; the field is omitted when
// absent, never a bare null.
func writeErrorDetails(w http.ResponseWriter, r *http.Request, code int, msg string, details any) {
	payload := map[string]any{
		"error": msg,
	}
	if details != nil {
		payload["details"] = details
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeSecureJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleListingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, listing.ErrNotFound), errors.Is(err, listing.ErrInactiveListing):
		writeError(w, r, http.StatusNotFound, "listing not found")
	case errors.Is(err, listing.ErrProfileNotFound):
		writeError(w, r, http.StatusForbidden, "profile required")
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

// allowRate enforces one endpoint's fixed window for the request's client
// key. On rejection the 429 response is already written.
func (a *API) allowRate(w http.ResponseWriter, r *http.Request, scope string, max int) bool {
	key := scope + ":" + security.ClientIP(r, a.secOpts)
	if a.limiter.Allow(r.Context(), key, max, rateWindow) {
		return true
	}
	obs.RateLimitRejected(scope)
	w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	return false
}
