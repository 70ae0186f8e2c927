package hall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/user"
)

// Repository defines hall persistence. Creation also provisions the hall's
// staff accounts so hall, users, and audit entry commit atomically.
type Repository interface {
	List(ctx context.Context) ([]*Hall, error)
	GetBySlug(ctx context.Context, slug string) (*Hall, error)
	GetByID(ctx context.Context, id string) (*Hall, error)

	// CreateWithStaff inserts the hall, its staff accounts, and the audit
	// entry in one transaction. The first staff member becomes the hall's
	// admin (owner) account. Halls are never hard-deleted.
	CreateWithStaff(ctx context.Context, h *Hall, staff []*user.User, entry *audit.Entry) error

	// Update persists hall edits together with the audit entry.
	Update(ctx context.Context, h *Hall, entry *audit.Entry) error
}

type pgxRepository struct {
	pool      *pgxpool.Pool
	auditRepo audit.Repository
}

func NewPgxRepository(pool *pgxpool.Pool, auditRepo audit.Repository) Repository {
	return &pgxRepository{pool: pool, auditRepo: auditRepo}
}

const hallColumns = `id, name, slug, admin_name, admin_phone,
	morning_description, evening_description, morning_highlights, evening_highlights,
	morning_discount, evening_discount, morning_pricing, evening_pricing,
	instructions, phone, email, latitude, longitude, pictures, admin_id, created_at`

func scanHall(row pgx.Row) (*Hall, error) {
	var h Hall
	var morningHL, eveningHL, pictures []byte
	var adminID *string

	if err := row.Scan(
		&h.ID, &h.Name, &h.Slug, &h.AdminName, &h.AdminPhone,
		&h.Morning.Description, &h.Evening.Description, &morningHL, &eveningHL,
		&h.Morning.Discount, &h.Evening.Discount, &h.MorningPricing, &h.EveningPricing,
		&h.Instructions, &h.Phone, &h.Email, &h.Latitude, &h.Longitude,
		&pictures, &adminID, &h.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan hall failed: %w", err)
	}

	// Highlights and pictures are stored as JSON arrays.
	_ = json.Unmarshal(morningHL, &h.Morning.Highlights)
	_ = json.Unmarshal(eveningHL, &h.Evening.Highlights)
	_ = json.Unmarshal(pictures, &h.Pictures)
	if adminID != nil {
		h.AdminID = *adminID
	}

	return &h, nil
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return data
}

func (r *pgxRepository) List(ctx context.Context) ([]*Hall, error) {
	query := fmt.Sprintf("SELECT %s FROM public.halls ORDER BY created_at ASC", hallColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list halls failed: %w", err)
	}
	defer rows.Close()

	var halls []*Hall
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		halls = append(halls, h)
	}
	return halls, nil
}

func (r *pgxRepository) GetBySlug(ctx context.Context, slug string) (*Hall, error) {
	query := fmt.Sprintf("SELECT %s FROM public.halls WHERE slug = $1", hallColumns)
	return scanHall(r.pool.QueryRow(ctx, query, slug))
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Hall, error) {
	query := fmt.Sprintf("SELECT %s FROM public.halls WHERE id = $1", hallColumns)
	return scanHall(r.pool.QueryRow(ctx, query, id))
}

func (r *pgxRepository) CreateWithStaff(ctx context.Context, h *Hall, staff []*user.User, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create hall tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.insertHall(ctx, tx, h); err != nil {
		return err
	}

	for i, u := range staff {
		u.HallID = h.ID
		if err := insertStaff(ctx, tx, u); err != nil {
			return err
		}
		// The owner account doubles as the hall admin.
		if i == 0 {
			if _, err := tx.Exec(ctx, "UPDATE public.halls SET admin_id = $2 WHERE id = $1", h.ID, u.ID); err != nil {
				return fmt.Errorf("set hall admin failed: %w", err)
			}
			h.AdminID = u.ID
		}
	}

	if entry != nil {
		entry.HallID = h.ID
		if err := r.auditRepo.Append(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *pgxRepository) insertHall(ctx context.Context, tx pgx.Tx, h *Hall) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.halls").
		Columns(
			"name", "slug", "admin_name", "admin_phone",
			"morning_description", "evening_description",
			"morning_highlights", "evening_highlights",
			"morning_discount", "evening_discount",
			"morning_pricing", "evening_pricing",
			"instructions", "phone", "email", "latitude", "longitude", "pictures",
		).
		Values(
			h.Name, h.Slug, h.AdminName, h.AdminPhone,
			h.Morning.Description, h.Evening.Description,
			mustJSON(h.Morning.Highlights), mustJSON(h.Evening.Highlights),
			h.Morning.Discount, h.Evening.Discount,
			[]byte(h.MorningPricing), []byte(h.EveningPricing),
			h.Instructions, h.Phone, h.Email, h.Latitude, h.Longitude,
			mustJSON(h.Pictures),
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create hall query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&h.ID, &h.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("create hall failed: %w", err)
	}
	return nil
}

func insertStaff(ctx context.Context, tx pgx.Tx, u *user.User) error {
	const query = `
		INSERT INTO public.users (username, password_hash, role, hall_id, is_site_admin)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, created_at
	`

	if err := tx.QueryRow(ctx, query, u.Username, u.PasswordHash, string(u.Role), u.HallID).
		Scan(&u.ID, &u.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return user.ErrUsernameTaken
		}
		return fmt.Errorf("create staff account failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Update(ctx context.Context, h *Hall, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update hall tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.halls").
		Set("name", h.Name).
		Set("admin_name", h.AdminName).
		Set("admin_phone", h.AdminPhone).
		Set("morning_description", h.Morning.Description).
		Set("evening_description", h.Evening.Description).
		Set("morning_highlights", mustJSON(h.Morning.Highlights)).
		Set("evening_highlights", mustJSON(h.Evening.Highlights)).
		Set("morning_discount", h.Morning.Discount).
		Set("evening_discount", h.Evening.Discount).
		Set("morning_pricing", []byte(h.MorningPricing)).
		Set("evening_pricing", []byte(h.EveningPricing)).
		Set("instructions", h.Instructions).
		Set("phone", h.Phone).
		Set("email", h.Email).
		Set("latitude", h.Latitude).
		Set("longitude", h.Longitude).
		Set("pictures", mustJSON(h.Pictures)).
		Where(squirrel.Eq{"id": h.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update hall query failed: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update hall failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if entry != nil {
		if err := r.auditRepo.Append(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
