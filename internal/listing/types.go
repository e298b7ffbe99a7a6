// Package listing holds the property-market domain: properties, profiles,
// favorites and inquiries, plus the Service interface the HTTP layer and
// the Postgres store both implement.
package listing

import (
	"errors"
	"time"

	"llaveo.org/internal/auth"
)

// PropertyStatus is the listing's market state.
type PropertyStatus string

const (
	StatusSale   PropertyStatus = "sale"
	StatusRent   PropertyStatus = "rent"
	StatusSold   PropertyStatus = "sold"
	StatusRented PropertyStatus = "rented"
)

// Valid reports whether s is one of the defined statuses.
func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusSale, StatusRent, StatusSold, StatusRented:
		return true
	}
	return false
}

// PropertyType classifies the building.
type PropertyType string

const (
	TypeHouse     PropertyType = "house"
	TypeApartment PropertyType = "apartment"
	TypeLand      PropertyType = "land"
	TypeOffice    PropertyType = "office"
	TypeLocal     PropertyType = "local"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeHouse, TypeApartment, TypeLand, TypeOffice, TypeLocal:
		return true
	}
	return false
}

// Property is one listing. Prices are in minor units to avoid floats.
type Property struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       int64          `json:"price"`
	Currency    string         `json:"currency"`
	Status      PropertyStatus `json:"status"`
	Type        PropertyType   `json:"type"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Address     string         `json:"address,omitempty"`
	Bedrooms    int            `json:"bedrooms"`
	Bathrooms   int            `json:"bathrooms"`
	AreaM2      int            `json:"area_m2"`
	Featured    bool           `json:"featured"`
	Active      bool           `json:"active"`
	AgentID     string         `json:"agent_id,omitempty"`
	Images      []Image        `json:"images,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Image is one photo attached to a property, ordered by Position.
type Image struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	URL        string `json:"url"`
	Position   int    `json:"position"`
}

// Profile is the application-side account row keyed by the platform user ID.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Favorite links a user to a saved property.
type Favorite struct {
	UserID     string    `json:"user_id"`
	PropertyID string    `json:"property_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// InquiryStatus tracks an inquiry through the agent workflow.
type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "pending"
	InquiryContacted InquiryStatus = "contacted"
	InquiryClosed    InquiryStatus = "closed"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryPending, InquiryContacted, InquiryClosed:
		return true
	}
	return false
}

// Inquiry is a contact request about a specific listing.
type Inquiry struct {
	ID         string        `json:"id"`
	PropertyID string        `json:"property_id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	Message    string        `json:"message"`
	Status     InquiryStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

var (
	ErrNotFound         = errors.New("listing: not found")
	ErrInactiveListing  = errors.New("listing: inactive")
	ErrAlreadyFavorited = errors.New("listing: already favorited")
	ErrProfileNotFound  = errors.New("listing: profile not found")
)
