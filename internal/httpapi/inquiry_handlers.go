package httpapi

import (
	"net/http"
	"unicode/utf8"

	"llaveo.org/internal/audit"
	"llaveo.org/internal/listing"
	"llaveo.org/internal/security"
)

type inquiryRequest struct {
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (req *inquiryRequest) validate() string {
	if !security.ValidPropertyID(req.PropertyID) {
		return "invalid property id"
	}
	req.Name = security.SanitizeText(req.Name, 100)
	if utf8.RuneCountInString(req.Name) < 2 {
		return "name must be 2-100 characters"
	}
	if !security.ValidEmail(req.Email) {
		return "invalid email address"
	}
	req.Phone = security.SanitizeText(req.Phone, 20)
	req.Message = security.SanitizeText(req.Message, 1000)
	return ""
}

// CreateInquiry records a contact request about a listing.
func (a *API) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "inquiry", inquiryRateMax) {
		return
	}
	var req inquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	inq, err := a.svc.CreateInquiry(r.Context(), listing.Inquiry{
		PropertyID: req.PropertyID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
	})
	if err != nil {
		handleListingError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "inquiry_created", map[string]any{
		"inquiry_id":  inq.ID,
		"property_id": inq.PropertyID,
	})
	writeSecureJSON(w, http.StatusCreated, inq)
}
