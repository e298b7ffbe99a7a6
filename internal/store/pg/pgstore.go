// Package pg implements listing.Service on Postgres.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"llaveo.org/internal/auth"
	"llaveo.org/internal/ids"
	"llaveo.org/internal/listing"
	"llaveo.org/internal/obs"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ listing.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const propertyColumns = `id, title, description, price, currency, status, type,
	city, state, address, bedrooms, bathrooms, area_m2, featured, active,
	coalesce(agent_id::text,''), created_at, updated_at`

// Same columns qualified for the favorites join.
const propertyColumnsP = `p.id, p.title, p.description, p.price, p.currency,
	p.status, p.type, p.city, p.state, p.address, p.bedrooms, p.bathrooms,
	p.area_m2, p.featured, p.active, coalesce(p.agent_id::text,''),
	p.created_at, p.updated_at`

func scanProperty(row interface{ Scan(...any) error }) (listing.Property, error) {
	var p listing.Property
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Currency,
		&p.Status, &p.Type, &p.City, &p.State, &p.Address, &p.Bedrooms,
		&p.Bathrooms, &p.AreaM2, &p.Featured, &p.Active, &p.AgentID,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) SearchProperties(ctx context.Context, filter listing.SearchFilter) ([]listing.Property, error) {
	where := []string{"active"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Type != "" {
		where = append(where, "type = "+arg(string(filter.Type)))
	}
	if filter.City != "" {
		where = append(where, "city ilike "+arg(filter.City))
	}
	if filter.MinPrice > 0 {
		where = append(where, "price >= "+arg(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		where = append(where, "price <= "+arg(filter.MaxPrice))
	}
	if filter.Bedrooms > 0 {
		where = append(where, "bedrooms >= "+arg(filter.Bedrooms))
	}
	if pattern := filter.LikePattern(); pattern != "" {
		p := arg(pattern)
		where = append(where, fmt.Sprintf("(title ilike %s or description ilike %s or city ilike %s)", p, p, p))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = listing.DefaultSearchLimit
	}
	query := fmt.Sprintf(`select %s from properties where %s order by created_at desc, id limit %s offset %s`,
		propertyColumns, strings.Join(where, " and "), arg(limit), arg(filter.Offset))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachImages(ctx, out)
}

func (s *Store) FeaturedProperties(ctx context.Context, limit int) ([]listing.Property, error) {
	if limit <= 0 {
		limit = 6
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`select %s from properties where active and featured order by created_at desc, id limit $1`,
		propertyColumns), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachImages(ctx, out)
}

func (s *Store) PropertyByID(ctx context.Context, id string) (listing.Property, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`select %s from properties where id=$1`, propertyColumns), id)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Property{}, listing.ErrNotFound
	}
	if err != nil {
		return listing.Property{}, err
	}
	withImages, err := s.attachImages(ctx, []listing.Property{p})
	if err != nil {
		return listing.Property{}, err
	}
	return withImages[0], nil
}

func (s *Store) attachImages(ctx context.Context, props []listing.Property) ([]listing.Property, error) {
	if len(props) == 0 {
		return props, nil
	}
	idx := make(map[string]int, len(props))
	propIDs := make([]string, len(props))
	for i, p := range props {
		idx[p.ID] = i
		propIDs[i] = p.ID
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, property_id, url, position
		from property_images
		where property_id = any($1)
		order by property_id, position
	`, propIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var img listing.Image
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.URL, &img.Position); err != nil {
			return nil, err
		}
		if i, ok := idx[img.PropertyID]; ok {
			props[i].Images = append(props[i].Images, img)
		}
	}
	return props, rows.Err()
}

func (s *Store) CreateProperty(ctx context.Context, p listing.Property) (listing.Property, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = listing.StatusSale
	}
	row := s.db.QueryRowContext(ctx, `
		insert into properties
			(id, title, description, price, currency, status, type, city, state,
			 address, bedrooms, bathrooms, area_m2, featured, active, agent_id)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,true,nullif($15,'')::uuid)
		returning created_at, updated_at
	`, p.ID, p.Title, p.Description, p.Price, p.Currency, p.Status, p.Type,
		p.City, p.State, p.Address, p.Bedrooms, p.Bathrooms, p.AreaM2,
		p.Featured, p.AgentID)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return listing.Property{}, err
	}
	p.Active = true
	return p, nil
}

func (s *Store) UpdateProperty(ctx context.Context, p listing.Property) (listing.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		update properties set
			title=$2, description=$3, price=$4, currency=$5, status=$6, type=$7,
			city=$8, state=$9, address=$10, bedrooms=$11, bathrooms=$12,
			area_m2=$13, featured=$14, updated_at=now()
		where id=$1
		returning active, created_at, updated_at
	`, p.ID, p.Title, p.Description, p.Price, p.Currency, p.Status, p.Type,
		p.City, p.State, p.Address, p.Bedrooms, p.Bathrooms, p.AreaM2, p.Featured)
	err := row.Scan(&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Property{}, listing.ErrNotFound
	}
	if err != nil {
		return listing.Property{}, err
	}
	return p, nil
}

func (s *Store) DeactivateProperty(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update properties set active=false, updated_at=now() where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// EnsureProfile returns the profile row for the account, creating a viewer
// row when none exists. Creation goes through the create_user_profile
// function first so database-side defaults apply; when the function is
// missing the direct insert covers it.
func (s *Store) EnsureProfile(ctx context.Context, p listing.Profile) (listing.Profile, error) {
	existing, err := s.ProfileByID(ctx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, listing.ErrProfileNotFound) {
		return listing.Profile{}, err
	}

	if _, err := s.db.ExecContext(ctx,
		`select create_user_profile($1,$2,$3,$4)`,
		p.ID, p.Email, p.FullName, p.AvatarURL); err != nil {
		obs.Log("warn", "profile_rpc_failed", map[string]any{
			"error": err.Error(),
		})
		if _, err := s.db.ExecContext(ctx, `
			insert into profiles (id, email, full_name, avatar_url, role)
			values ($1,$2,$3,$4,'viewer')
			on conflict (id) do nothing
		`, p.ID, p.Email, p.FullName, p.AvatarURL); err != nil {
			return listing.Profile{}, err
		}
	}
	return s.ProfileByID(ctx, p.ID)
}

func (s *Store) ProfileByID(ctx context.Context, id string) (listing.Profile, error) {
	var p listing.Profile
	var role string
	err := s.db.QueryRowContext(ctx, `
		select id, email, coalesce(full_name,''), coalesce(avatar_url,''), role, created_at
		from profiles where id=$1
	`, id).Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &role, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Profile{}, listing.ErrProfileNotFound
	}
	if err != nil {
		return listing.Profile{}, err
	}
	p.Role = auth.Role(role)
	return p, nil
}

func (s *Store) CreateInquiry(ctx context.Context, inq listing.Inquiry) (listing.Inquiry, error) {
	var active bool
	err := s.db.QueryRowContext(ctx, `select active from properties where id=$1`, inq.PropertyID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Inquiry{}, listing.ErrNotFound
	}
	if err != nil {
		return listing.Inquiry{}, err
	}
	if !active {
		return listing.Inquiry{}, listing.ErrInactiveListing
	}

	inq.ID = ids.New()
	inq.Status = listing.InquiryPending
	row := s.db.QueryRowContext(ctx, `
		insert into inquiries (id, property_id, name, email, phone, message, status)
		values ($1,$2,$3,$4,$5,$6,'pending')
		returning created_at
	`, inq.ID, inq.PropertyID, inq.Name, inq.Email, inq.Phone, inq.Message)
	if err := row.Scan(&inq.CreatedAt); err != nil {
		return listing.Inquiry{}, err
	}
	return inq, nil
}

func (s *Store) ListInquiries(ctx context.Context, status listing.InquiryStatus, limit, offset int) ([]listing.Inquiry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		select id, property_id, name, email, coalesce(phone,''), message, status, created_at
		from inquiries`
	args := []any{limit, offset}
	if status != "" {
		query += ` where status=$3`
		args = append(args, string(status))
	}
	query += ` order by created_at desc limit $1 offset $2`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Inquiry{}
	for rows.Next() {
		var inq listing.Inquiry
		if err := rows.Scan(&inq.ID, &inq.PropertyID, &inq.Name, &inq.Email,
			&inq.Phone, &inq.Message, &inq.Status, &inq.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inq)
	}
	return out, rows.Err()
}

func (s *Store) UpdateInquiryStatus(ctx context.Context, id string, status listing.InquiryStatus) (listing.Inquiry, error) {
	var inq listing.Inquiry
	err := s.db.QueryRowContext(ctx, `
		update inquiries set status=$2 where id=$1
		returning id, property_id, name, email, coalesce(phone,''), message, status, created_at
	`, id, string(status)).Scan(&inq.ID, &inq.PropertyID, &inq.Name, &inq.Email,
		&inq.Phone, &inq.Message, &inq.Status, &inq.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return listing.Inquiry{}, listing.ErrNotFound
	}
	if err != nil {
		return listing.Inquiry{}, err
	}
	return inq, nil
}

func (s *Store) AddFavorite(ctx context.Context, userID, propertyID string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into favorites (user_id, property_id) values ($1,$2)
	`, userID, propertyID)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return listing.ErrAlreadyFavorited
		case "23503": // foreign key: property does not exist
			return listing.ErrNotFound
		}
	}
	return err
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, propertyID string) error {
	// Removing an absent favorite is a no-op, matching the in-memory service.
	_, err := s.db.ExecContext(ctx, `delete from favorites where user_id=$1 and property_id=$2`, userID, propertyID)
	return err
}

func (s *Store) ListFavorites(ctx context.Context, userID string) ([]listing.Property, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		select %s from properties p
		join favorites f on f.property_id = p.id
		where f.user_id = $1 and p.active
		order by f.created_at
	`, propertyColumnsP), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []listing.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachImages(ctx, out)
}
