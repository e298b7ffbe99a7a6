package httpapi

import (
	"net/http"

	"llaveo.org/internal/audit"
	"llaveo.org/internal/auth"
	"llaveo.org/internal/listing"
	"llaveo.org/internal/security"
)

// AdminPage guards the browser-rendered admin entry point. Unlike the JSON
// API, denial here is a redirect to the access-denied page.
func (a *API) AdminPage(w http.ResponseWriter, r *http.Request) {
	user, err := a.identity(w, r)
	if err != nil || user == nil {
		http.Redirect(w, r, "/access-denied", http.StatusFound)
		return
	}
	profile, err := a.svc.EnsureProfile(r.Context(), listing.Profile{ID: user.ID, Email: user.Email})
	if err != nil || !profile.Role.CanAccessAdmin() {
		http.Redirect(w, r, "/access-denied", http.StatusFound)
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{
		"role":  profile.Role,
		"email": profile.Email,
	})
}

type propertyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	City        string `json:"city"`
	State       string `json:"state"`
	Address     string `json:"address,omitempty"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	AreaM2      int    `json:"area_m2"`
	Featured    bool   `json:"featured"`
}

func (req *propertyRequest) validate() string {
	req.Title = security.SanitizeText(req.Title, 200)
	if req.Title == "" {
		return "title is required"
	}
	if req.Price < 0 || req.Price > 100_000_000 {
		return "price out of range"
	}
	if req.Status != "" && !listing.PropertyStatus(req.Status).Valid() {
		return "invalid status"
	}
	if req.Type != "" && !listing.PropertyType(req.Type).Valid() {
		return "invalid type"
	}
	if req.Bedrooms < 0 || req.Bedrooms > 20 || req.Bathrooms < 0 || req.Bathrooms > 20 {
		return "rooms out of range"
	}
	return ""
}

func (req *propertyRequest) toProperty() listing.Property {
	return listing.Property{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Status:      listing.PropertyStatus(req.Status),
		Type:        listing.PropertyType(req.Type),
		City:        req.City,
		State:       req.State,
		Address:     req.Address,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaM2:      req.AreaM2,
		Featured:    req.Featured,
	}
}

// AdminCreateProperty creates a listing. Agents and admins only.
func (a *API) AdminCreateProperty(w http.ResponseWriter, r *http.Request) {
	ident := a.requireRole(w, r, auth.RoleAgent)
	if ident == nil {
		return
	}
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	p := req.toProperty()
	p.AgentID = ident.ID
	created, err := a.svc.CreateProperty(r.Context(), p)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	_ = audit.LogEvent(auth.ContextWithIdentity(r.Context(), ident), "property_created", map[string]any{
		"property_id": created.ID,
	})
	writeSecureJSON(w, http.StatusCreated, created)
}

func (a *API) AdminUpdateProperty(w http.ResponseWriter, r *http.Request) {
	ident := a.requireRole(w, r, auth.RoleAgent)
	if ident == nil {
		return
	}
	id := r.PathValue("id")
	if !security.ValidPropertyID(id) {
		writeError(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	p := req.toProperty()
	p.ID = id
	updated, err := a.svc.UpdateProperty(r.Context(), p)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	_ = audit.LogEvent(auth.ContextWithIdentity(r.Context(), ident), "property_updated", map[string]any{
		"property_id": id,
	})
	writeSecureJSON(w, http.StatusOK, updated)
}

// AdminDeleteProperty deactivates a listing. Rows are kept for favorites
// and inquiry history; nothing is physically deleted.
func (a *API) AdminDeleteProperty(w http.ResponseWriter, r *http.Request) {
	ident := a.requireRole(w, r, auth.RoleAgent)
	if ident == nil {
		return
	}
	id := r.PathValue("id")
	if !security.ValidPropertyID(id) {
		writeError(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	if err := a.svc.DeactivateProperty(r.Context(), id); err != nil {
		handleListingError(w, r, err)
		return
	}
	_ = audit.LogEvent(auth.ContextWithIdentity(r.Context(), ident), "property_deactivated", map[string]any{
		"property_id": id,
	})
	writeSecureJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AdminListInquiries lists contact requests. Admin only.
func (a *API) AdminListInquiries(w http.ResponseWriter, r *http.Request) {
	if a.requireRole(w, r, auth.RoleAdmin) == nil {
		return
	}
	status := listing.InquiryStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, http.StatusBadRequest, "invalid status")
		return
	}
	limit, offset := 50, 0
	if v, ok, err := queryInt(r, "limit"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid limit")
		return
	} else if ok && v > 0 && v <= 200 {
		limit = int(v)
	}
	if v, ok, err := queryInt(r, "offset"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid offset")
		return
	} else if ok && v >= 0 {
		offset = int(v)
	}
	items, err := a.svc.ListInquiries(r.Context(), status, limit, offset)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{"items": items})
}

type inquiryStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) AdminUpdateInquiry(w http.ResponseWriter, r *http.Request) {
	ident := a.requireRole(w, r, auth.RoleAdmin)
	if ident == nil {
		return
	}
	var req inquiryStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status := listing.InquiryStatus(req.Status)
	if !status.Valid() {
		writeError(w, r, http.StatusBadRequest, "invalid status")
		return
	}
	updated, err := a.svc.UpdateInquiryStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	_ = audit.LogEvent(auth.ContextWithIdentity(r.Context(), ident), "inquiry_status_changed", map[string]any{
		"inquiry_id": updated.ID,
		"status":     string(status),
	})
	writeSecureJSON(w, http.StatusOK, updated)
}
