package httpapi

import (
	"net/http"
	"strconv"

	"llaveo.org/internal/listing"
	"llaveo.org/internal/security"
)

func queryInt(r *http.Request, name string) (int64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Search is the public catalog search. Every parameter is optional; invalid
// values are 400s naming the parameter, not silently ignored.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "search", searchRateMax) {
		return
	}

	q := r.URL.Query()
	filter := listing.SearchFilter{
		Query:  q.Get("q"),
		City:   q.Get("city"),
		Status: listing.PropertyStatus(q.Get("status")),
		Type:   listing.PropertyType(q.Get("type")),
	}
	for _, p := range []struct {
		name string
		dst  func(int64)
	}{
		{"minRooms", func(v int64) { filter.Bedrooms = int(v) }},
		{"minPrice", func(v int64) { filter.MinPrice = v }},
		{"maxPrice", func(v int64) { filter.MaxPrice = v }},
		{"limit", func(v int64) { filter.Limit = int(v) }},
		{"offset", func(v int64) { filter.Offset = int(v) }},
	} {
		v, ok, err := queryInt(r, p.name)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid "+p.name)
			return
		}
		if ok {
			p.dst(v)
		}
	}

	filter, err := filter.Normalize()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items, err := a.svc.SearchProperties(r.Context(), filter)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Featured returns the homepage's featured listings.
func (a *API) Featured(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "search", searchRateMax) {
		return
	}
	limit := 6
	if v, ok, err := queryInt(r, "limit"); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid limit")
		return
	} else if ok && v > 0 && v <= 24 {
		limit = int(v)
	}
	items, err := a.svc.FeaturedProperties(r.Context(), limit)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	writeSecureJSON(w, http.StatusOK, map[string]any{"items": items})
}

// PropertyByID returns one listing. Inactive listings are visible only
// through admin surfaces, not here.
func (a *API) PropertyByID(w http.ResponseWriter, r *http.Request) {
	if !a.allowRate(w, r, "search", searchRateMax) {
		return
	}
	id := r.PathValue("id")
	if !security.ValidPropertyID(id) {
		writeError(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	p, err := a.svc.PropertyByID(r.Context(), id)
	if err != nil {
		handleListingError(w, r, err)
		return
	}
	if !p.Active {
		writeError(w, r, http.StatusNotFound, "listing not found")
		return
	}
	writeSecureJSON(w, http.StatusOK, p)
}
