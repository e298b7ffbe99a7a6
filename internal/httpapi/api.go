// Package httpapi is the HTTP layer: routing, middleware and handlers.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"llaveo.org/internal/listing"
	"llaveo.org/internal/obs"
	"llaveo.org/internal/platform"
	"llaveo.org/internal/security"
	"llaveo.org/internal/session"
)

// ReadyProbe checks downstream readiness (e.g. DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	svc      listing.Service
	platform *platform.Client
	limiter  security.Limiter

	secOpts      security.Options
	cookieSecure bool
	cookieMaxAge time.Duration

	// Global per-IP token bucket in front of the per-endpoint windows.
	rateBurst  int
	ratePerSec int
}

// Option configures the API.
type Option func(*API)

// WithSecurityOptions sets origin-inference behavior for headers and
// client-IP resolution.
func WithSecurityOptions(opts security.Options) Option {
	return func(a *API) { a.secOpts = opts }
}

// WithCookiePolicy sets the session cookie's Secure flag and lifetime.
func WithCookiePolicy(secure bool, maxAge time.Duration) Option {
	return func(a *API) {
		a.cookieSecure = secure
		if maxAge > 0 {
			a.cookieMaxAge = maxAge
		}
	}
}

// WithGlobalRate tunes the global token bucket.
func WithGlobalRate(burst, perSec int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
	}
}

func New(rp ReadyProbe, version string, svc listing.Service, pc *platform.Client, limiter security.Limiter, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		svc:          svc,
		platform:     pc,
		limiter:      limiter,
		cookieMaxAge: session.DefaultCookieMaxAge,
		rateBurst:    50,
		ratePerSec:   25,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session bridge
	a.mux.HandleFunc("GET /api/auth/session", a.GetSession)
	a.mux.HandleFunc("POST /api/auth/session", a.SetSession)
	a.mux.HandleFunc("DELETE /api/auth/session", a.DeleteSession)

	// public catalog
	a.mux.HandleFunc("GET /api/search", a.Search)
	a.mux.HandleFunc("GET /api/properties/featured", a.Featured)
	a.mux.HandleFunc("GET /api/properties/{id}", a.PropertyByID)
	a.mux.HandleFunc("POST /api/inquiry", a.CreateInquiry)

	// favorites (Bearer-token authenticated)
	a.mux.HandleFunc("GET /api/favorites", a.ListFavorites)
	a.mux.HandleFunc("POST /api/favorites", a.MutateFavorite)
	a.mux.HandleFunc("DELETE /api/favorites", a.RemoveFavorite)

	// admin surface (session-guarded)
	a.mux.HandleFunc("GET /admin", a.AdminPage)
	a.mux.HandleFunc("POST /api/admin/properties", a.AdminCreateProperty)
	a.mux.HandleFunc("PUT /api/admin/properties/{id}", a.AdminUpdateProperty)
	a.mux.HandleFunc("DELETE /api/admin/properties/{id}", a.AdminDeleteProperty)
	a.mux.HandleFunc("GET /api/admin/inquiries", a.AdminListInquiries)
	a.mux.HandleFunc("PUT /api/admin/inquiries/{id}", a.AdminUpdateInquiry)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = RateLimit(h, a.rateBurst, a.ratePerSec, a.secOpts)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h, a.secOpts)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "llaveo-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "llaveo-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
