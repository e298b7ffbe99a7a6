package httpapi

import (
	"errors"
	"net/http"

	"llaveo.org/internal/listing"
	"llaveo.org/internal/security"
)

type favoriteRequest struct {
	PropertyID string `json:"property_id"`
	Action     string `json:"action"` // add | remove
}

// ListFavorites returns the caller's saved listings.
func (a *API) ListFavorites(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "favorites_read", favoritesReadRateMax) {
		return
	}
	ident := a.requireIdentity(w, r)
	if ident == nil {
		return
	}
	items, err := a.svc.ListFavorites(r.Context(), ident.ID)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{"items": items})
}

// MutateFavorite adds or removes one favorite. Adding an existing favorite
// reports isFavorite without erroring, so the client toggle is idempotent.
func (a *API) MutateFavorite(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "favorites_write", favoritesWriteRate) {
		return
	}
	ident := a.requireIdentity(w, r)
	if ident == nil {
		return
	}

	var req favoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !security.ValidPropertyID(req.PropertyID) {
		writeError(w, r, http.StatusBadRequest, "invalid property id")
		return
	}

	switch req.Action {
	case "add":
		err := a.svc.AddFavorite(r.Context(), ident.ID, req.PropertyID)
		if err != nil && !errors.Is(err, listing.ErrAlreadyFavorited) {
			handleListingError(w, r, err)
			return
		}
		writeSecureJSON(w, http.StatusOK, map[string]any{"isFavorite": true})
	case "remove":
		if err := a.svc.RemoveFavorite(r.Context(), ident.ID, req.PropertyID); err != nil {
			handleListingError(w, r, err)
			return
		}
		writeSecureJSON(w, http.StatusOK, map[string]any{"isFavorite": false})
	default:
		writeError(w, r, http.StatusBadRequest, `action must be "add" or "remove"`)
	}
}

// RemoveFavorite is the DELETE form of removal, taking the property ID as a
// query parameter.
func (a *API) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "favorites_write", favoritesWriteRate) {
		return
	}
	ident := a.requireIdentity(w, r)
	if ident == nil {
		return
	}
	id := r.URL.Query().Get("property_id")
	if !security.ValidPropertyID(id) {
		writeError(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	if err := a.svc.RemoveFavorite(r.Context(), ident.ID, id); err != nil {
		handleListingError(w, r, err)
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{"isFavorite": false})
}
