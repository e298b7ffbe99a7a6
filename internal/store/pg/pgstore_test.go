package pg

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"llaveo.org/internal/auth"
	"llaveo.org/internal/listing"
)

// pgxValueConverter lets slice arguments (e.g. []string for `= any($1)`)
// through to the mock, matching what the real pgx driver accepts.
type pgxValueConverter struct{}

func (pgxValueConverter) ConvertValue(v any) (driver.Value, error) {
	if driver.IsValue(v) {
		return v, nil
	}
	if _, ok := v.([]string); ok {
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(pgxValueConverter{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewWithDB(db), mock
}

func propertyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "price", "currency", "status", "type",
		"city", "state", "address", "bedrooms", "bathrooms", "area_m2",
		"featured", "active", "agent_id", "created_at", "updated_at",
	})
}

func addProperty(rows *sqlmock.Rows, id, title string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, title, "desc", int64(100), "MXN", "sale", "house",
		"CDMX", "CDMX", "", 2, 1, 80, false, true, "", now, now)
}

func TestSearchPropertiesBuildsConditions(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select .+ from properties where active and status = \$1 and price >= \$2 and \(title ilike \$3 or description ilike \$3 or city ilike \$3\) order by created_at desc`).
		WithArgs("sale", int64(500), "%casa%", 20, 0).
		WillReturnRows(addProperty(propertyRows(), "p1", "Casa Roma"))
	mock.ExpectQuery(`select id, property_id, url, position`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "url", "position"}).
			AddRow("img1", "p1", "https://cdn.example.com/1.jpg", 0))

	filter, err := listing.SearchFilter{Status: listing.StatusSale, MinPrice: 500, Query: "casa"}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got, err := store.SearchProperties(context.Background(), filter)
	if err != nil {
		t.Fatalf("SearchProperties: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got[0].Images) != 1 || got[0].Images[0].URL != "https://cdn.example.com/1.jpg" {
		t.Fatalf("images not attached: %+v", got[0].Images)
	}
}

func TestPropertyByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`select .+ from properties where id=\$1`).
		WithArgs("missing").
		WillReturnRows(propertyRows())

	_, err := store.PropertyByID(context.Background(), "missing")
	if !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddFavoriteMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`insert into favorites`).
		WithArgs("user-1", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.AddFavorite(context.Background(), "user-1", "p1"); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}

	mock.ExpectExec(`insert into favorites`).
		WithArgs("user-1", "p1").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	if err := store.AddFavorite(context.Background(), "user-1", "p1"); !errors.Is(err, listing.ErrAlreadyFavorited) {
		t.Fatalf("expected ErrAlreadyFavorited, got %v", err)
	}

	mock.ExpectExec(`insert into favorites`).
		WithArgs("user-1", "ghost").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	if err := store.AddFavorite(context.Background(), "user-1", "ghost"); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureProfileReturnsExisting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select id, email, .+ from profiles where id=\$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "avatar_url", "role", "created_at"}).
			AddRow("user-1", "ana@example.com", "Ana", "", "agent", time.Now()))

	got, err := store.EnsureProfile(context.Background(), listing.Profile{ID: "user-1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if got.Role != auth.RoleAgent {
		t.Fatalf("unexpected role: %q", got.Role)
	}
}

func TestEnsureProfileFallsBackToDirectInsert(t *testing.T) {
	store, mock := newMockStore(t)

	emptyProfile := sqlmock.NewRows([]string{"id", "email", "full_name", "avatar_url", "role", "created_at"})
	mock.ExpectQuery(`select id, email, .+ from profiles where id=\$1`).
		WithArgs("user-1").
		WillReturnRows(emptyProfile)
	mock.ExpectExec(`select create_user_profile`).
		WithArgs("user-1", "ana@example.com", "Ana", "").
		WillReturnError(errors.New("function create_user_profile does not exist"))
	mock.ExpectExec(`insert into profiles`).
		WithArgs("user-1", "ana@example.com", "Ana", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`select id, email, .+ from profiles where id=\$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "avatar_url", "role", "created_at"}).
			AddRow("user-1", "ana@example.com", "Ana", "", "viewer", time.Now()))

	got, err := store.EnsureProfile(context.Background(), listing.Profile{ID: "user-1", Email: "ana@example.com", FullName: "Ana"})
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if got.Role != auth.RoleViewer {
		t.Fatalf("unexpected role: %q", got.Role)
	}
}

func TestCreateInquiryChecksListing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`select active from properties where id=\$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(false))
	_, err := store.CreateInquiry(context.Background(), listing.Inquiry{PropertyID: "p1"})
	if !errors.Is(err, listing.ErrInactiveListing) {
		t.Fatalf("expected ErrInactiveListing, got %v", err)
	}

	mock.ExpectQuery(`select active from properties where id=\$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"active"}))
	_, err = store.CreateInquiry(context.Background(), listing.Inquiry{PropertyID: "ghost"})
	if !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectQuery(`select active from properties where id=\$1`).
		WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
	mock.ExpectQuery(`insert into inquiries`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	inq, err := store.CreateInquiry(context.Background(), listing.Inquiry{PropertyID: "p2", Name: "Ana", Email: "ana@example.com", Message: "Info?"})
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	if inq.ID == "" || inq.Status != listing.InquiryPending {
		t.Fatalf("unexpected inquiry: %+v", inq)
	}
}

func TestDeactivatePropertyNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`update properties set active=false`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.DeactivateProperty(context.Background(), "missing"); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
