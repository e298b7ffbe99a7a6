package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"llaveo.org/internal/auth"
	"llaveo.org/internal/ids"
)

// Service defines the property-market operations.
type Service interface {
	SearchProperties(ctx context.Context, filter SearchFilter) ([]Property, error)
	FeaturedProperties(ctx context.Context, limit int) ([]Property, error)
	PropertyByID(ctx context.Context, id string) (Property, error)

	CreateProperty(ctx context.Context, p Property) (Property, error)
	UpdateProperty(ctx context.Context, p Property) (Property, error)
	DeactivateProperty(ctx context.Context, id string) error

	EnsureProfile(ctx context.Context, p Profile) (Profile, error)
	ProfileByID(ctx context.Context, id string) (Profile, error)

	CreateInquiry(ctx context.Context, inq Inquiry) (Inquiry, error)
	ListInquiries(ctx context.Context, status InquiryStatus, limit, offset int) ([]Inquiry, error)
	UpdateInquiryStatus(ctx context.Context, id string, status InquiryStatus) (Inquiry, error)

	AddFavorite(ctx context.Context, userID, propertyID string) error
	RemoveFavorite(ctx context.Context, userID, propertyID string) error
	ListFavorites(ctx context.Context, userID string) ([]Property, error)
}

// InMemory implements Service with in-process concurrency safety. Used in
// tests and local development; production runs the Postgres store.
type InMemory struct {
	mu        sync.RWMutex
	props     map[string]*Property
	profiles  map[string]*Profile
	inquiries map[string]*Inquiry
	favs      map[string]map[string]time.Time // userID -> propertyID -> added
	order     []string                        // insertion order of inquiry IDs
	now       func() time.Time
}

// Option configures InMemory.
type Option func(*InMemory)

// WithClock injects a deterministic time source.
func WithClock(now func() time.Time) Option {
	return func(s *InMemory) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemory creates an empty service.
func NewInMemory(opts ...Option) *InMemory {
	s := &InMemory{
		props:     make(map[string]*Property),
		profiles:  make(map[string]*Profile),
		inquiries: make(map[string]*Inquiry),
		favs:      make(map[string]map[string]time.Time),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) SearchProperties(ctx context.Context, filter SearchFilter) ([]Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Property, 0, filter.Limit)
	for _, p := range s.sortedProps() {
		if filter.Matches(p) {
			matched = append(matched, *p)
		}
	}
	if filter.Offset >= len(matched) {
		return []Property{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemory) FeaturedProperties(ctx context.Context, limit int) ([]Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Property, 0, limit)
	for _, p := range s.sortedProps() {
		if p.Active && p.Featured {
			out = append(out, *p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *InMemory) PropertyByID(ctx context.Context, id string) (Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.props[id]
	if !ok {
		return Property{}, ErrNotFound
	}
	return *p, nil
}

func (s *InMemory) CreateProperty(ctx context.Context, p Property) (Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusSale
	}
	now := s.now()
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now
	s.props[p.ID] = &p
	return p, nil
}

func (s *InMemory) UpdateProperty(ctx context.Context, p Property) (Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.props[p.ID]
	if !ok {
		return Property{}, ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.Active = existing.Active
	p.UpdatedAt = s.now()
	s.props[p.ID] = &p
	return p, nil
}

func (s *InMemory) DeactivateProperty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.props[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = false
	p.UpdatedAt = s.now()
	return nil
}

// EnsureProfile returns the stored profile, creating a viewer profile when
// the account has none yet.
func (s *InMemory) EnsureProfile(ctx context.Context, p Profile) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[p.ID]; ok {
		return *existing, nil
	}
	if p.Role == "" {
		p.Role = auth.RoleViewer
	}
	p.CreatedAt = s.now()
	s.profiles[p.ID] = &p
	return p, nil
}

func (s *InMemory) ProfileByID(ctx context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return *p, nil
}

func (s *InMemory) CreateInquiry(ctx context.Context, inq Inquiry) (Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.props[inq.PropertyID]
	if !ok {
		return Inquiry{}, ErrNotFound
	}
	if !p.Active {
		return Inquiry{}, ErrInactiveListing
	}

	inq.ID = ids.New()
	inq.Status = InquiryPending
	inq.CreatedAt = s.now()
	s.inquiries[inq.ID] = &inq
	s.order = append(s.order, inq.ID)
	return inq, nil
}

func (s *InMemory) ListInquiries(ctx context.Context, status InquiryStatus, limit, offset int) ([]Inquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Inquiry, 0, limit)
	// Newest first.
	for i := len(s.order) - 1; i >= 0; i-- {
		inq := s.inquiries[s.order[i]]
		if status != "" && inq.Status != status {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		out = append(out, *inq)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) UpdateInquiryStatus(ctx context.Context, id string, status InquiryStatus) (Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inq, ok := s.inquiries[id]
	if !ok {
		return Inquiry{}, ErrNotFound
	}
	inq.Status = status
	return *inq, nil
}

func (s *InMemory) AddFavorite(ctx context.Context, userID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.props[propertyID]; !ok {
		return ErrNotFound
	}
	byUser := s.favs[userID]
	if byUser == nil {
		byUser = make(map[string]time.Time)
		s.favs[userID] = byUser
	}
	if _, ok := byUser[propertyID]; ok {
		return ErrAlreadyFavorited
	}
	byUser[propertyID] = s.now()
	return nil
}

func (s *InMemory) RemoveFavorite(ctx context.Context, userID, propertyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.favs[userID]
	if !ok {
		return nil
	}
	delete(byUser, propertyID)
	return nil
}

func (s *InMemory) ListFavorites(ctx context.Context, userID string) ([]Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := s.favs[userID]
	out := make([]Property, 0, len(byUser))
	for id := range byUser {
		if p, ok := s.props[id]; ok && p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return byUser[out[i].ID].Before(byUser[out[j].ID]) })
	return out, nil
}

// sortedProps returns properties newest first with stable tie-breaking.
// Callers must hold at least the read lock.
func (s *InMemory) sortedProps() []*Property {
	out := make([]*Property, 0, len(s.props))
	for _, p := range s.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var _ Service = (*InMemory)(nil)
