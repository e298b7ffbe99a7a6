package httpapi

import (
	"errors"
	"net/http"

	"llaveo.org/internal/audit"
	"llaveo.org/internal/session"
)

type sessionPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type setSessionRequest struct {
	Session sessionPayload `json:"session"`
}

// GetSession reads the cookie-backed session. An absent session is a 200
// with a null session, never a 401: the endpoint reports state, it does not
// gate anything.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "session", sessionRateMax) {
		return
	}
	sess := a.cookieBridge(w, r).Session()
	if sess == nil {
		writeSecureJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{"session": sess})
}

// SetSession validates a submitted token pair with the platform before
// persisting it in the cookie.
func (a *API) SetSession(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "session", sessionRateMax) {
		return
	}
	var req setSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Session.AccessToken == "" || req.Session.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "both access and refresh tokens are required")
		return
	}

	bridge := a.cookieBridge(w, r)
	if _, err := bridge.SetSession(r.Context(), req.Session.AccessToken, req.Session.RefreshToken); err != nil {
		if errors.Is(err, session.ErrIncompleteTokens) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		// The platform rejected the pair or was unreachable.
		writeError(w, r, http.StatusInternalServerError, "failed to establish session")
		return
	}

	_ = audit.LogEvent(r.Context(), "session_established", nil)
	writeSecureJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteSession signs out. Platform sign-out and cookie removal are both
// attempted regardless of individual failures.
func (a *API) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "session", sessionRateMax) {
		return
	}
	a.cookieBridge(w, r).Clear(r.Context())
	_ = audit.LogEvent(r.Context(), "session_cleared", nil)
	writeSecureJSON(w, http.StatusOK, map[string]any{"success": true})
}
