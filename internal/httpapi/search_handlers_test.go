package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"llaveo.org/internal/listing"
)

type itemsResponse struct {
	Items []listing.Property `json:"items"`
}

func seedListings(t *testing.T, svc *listing.InMemory) (sale, rent listing.Property) {
	t.Helper()
	ctx := context.Background()
	var err error
	sale, err = svc.CreateProperty(ctx, listing.Property{
		Title: "Casa Condesa", City: "CDMX", Price: 2_500_000,
		Status: listing.StatusSale, Type: listing.TypeHouse, Bedrooms: 3,
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	rent, err = svc.CreateProperty(ctx, listing.Property{
		Title: "Depto Roma", City: "CDMX", Price: 18_000,
		Status: listing.StatusRent, Type: listing.TypeApartment, Bedrooms: 2, Featured: true,
	})
	if err != nil {
		t.Fatalf("seed rent: %v", err)
	}
	return sale, rent
}

func TestSearchFilters(t *testing.T) {
	c, svc := newTestAPI(t)
	sale, _ := seedListings(t, svc)

	resp := c.get("/api/search", url.Values{"status": {"sale"}, "minRooms": {"3"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status %d", resp.StatusCode)
	}
	body := decode[itemsResponse](t, resp)
	if len(body.Items) != 1 || body.Items[0].ID != sale.ID {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
}

func TestSearchValidation(t *testing.T) {
	c, _ := newTestAPI(t)

	cases := []url.Values{
		{"status": {"auction"}},
		{"minRooms": {"21"}},
		{"minRooms": {"abc"}},
		{"minPrice": {"-5"}},
		{"maxPrice": {"100000001"}},
		{"minPrice": {"500"}, "maxPrice": {"100"}},
	}
	for _, params := range cases {
		resp := c.get("/api/search", params, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("params %v: expected 400, got %d", params, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestSearchEmptyResult(t *testing.T) {
	c, _ := newTestAPI(t)
	resp := c.get("/api/search", url.Values{"q": {"nothing here"}}, nil)
	body := decode[itemsResponse](t, resp)
	if body.Items == nil || len(body.Items) != 0 {
		t.Fatalf("expected empty items array, got %+v", body.Items)
	}
}

func TestFeatured(t *testing.T) {
	c, svc := newTestAPI(t)
	_, rent := seedListings(t, svc)

	resp := c.get("/api/properties/featured", nil, nil)
	body := decode[itemsResponse](t, resp)
	if len(body.Items) != 1 || body.Items[0].ID != rent.ID {
		t.Fatalf("unexpected featured: %+v", body.Items)
	}

	resp = c.get("/api/properties/featured", url.Values{"limit": {"abc"}}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed limit: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPropertyByID(t *testing.T) {
	c, svc := newTestAPI(t)
	sale, _ := seedListings(t, svc)

	resp := c.get("/api/properties/"+sale.ID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("property status %d", resp.StatusCode)
	}
	got := decode[listing.Property](t, resp)
	if got.ID != sale.ID {
		t.Fatalf("unexpected property: %+v", got)
	}

	resp = c.get("/api/properties/not-a-uuid", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deactivated listings 404 on the public surface.
	if err := svc.DeactivateProperty(context.Background(), sale.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	resp = c.get("/api/properties/"+sale.ID, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for inactive listing, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
