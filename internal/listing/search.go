package listing

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"llaveo.org/internal/security"
)

// Search paging bounds. Offsets beyond reason indicate scraping, not paging.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	MaxSearchOffset    = 10_000
)

// SearchFilter is the validated, normalized form of search query parameters.
// Normalize must run before the filter reaches a Service.
type SearchFilter struct {
	Query    string `validate:"max=200"`
	Status   PropertyStatus
	Type     PropertyType
	City     string `validate:"max=100"`
	MinPrice int64  `validate:"min=0,max=100000000"`
	MaxPrice int64  `validate:"min=0,max=100000000"`
	Bedrooms int    `validate:"min=0,max=20"`
	Limit    int    `validate:"min=0,max=50"`
	Offset   int    `validate:"min=0,max=10000"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func filterValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Normalize validates the filter, trims and escapes free text, and applies
// paging defaults. Returns the usable filter or a caller error.
func (f SearchFilter) Normalize() (SearchFilter, error) {
	f.Query = security.SanitizeText(f.Query, 200)
	f.City = security.SanitizeText(f.City, 100)

	if err := filterValidator().Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return f, fmt.Errorf("invalid %s", strings.ToLower(fe.Field()))
		}
		return f, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, fmt.Errorf("invalid status %q", f.Status)
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, fmt.Errorf("invalid type %q", f.Type)
	}
	if f.MinPrice > 0 && f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return f, errors.New("min price exceeds max price")
	}
	if f.Limit == 0 {
		f.Limit = DefaultSearchLimit
	}
	return f, nil
}

// LikePattern returns the escaped ILIKE pattern for the free-text query, or
// empty when there is no query.
func (f SearchFilter) LikePattern() string {
	if f.Query == "" {
		return ""
	}
	return "%" + security.EscapeLike(f.Query) + "%"
}

// Matches reports whether p satisfies the filter. Used by the in-memory
// service; the Postgres store compiles the same conditions to SQL.
func (f SearchFilter) Matches(p *Property) bool {
	if !p.Active {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.City != "" && !strings.EqualFold(p.City, f.City) {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.Bedrooms > 0 && p.Bedrooms < f.Bedrooms {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.City), q) {
			return false
		}
	}
	return true
}
