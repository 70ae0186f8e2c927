package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
	"github.com/nekogravitycat/hall-booking-backend/internal/hall"
)

type Repository interface {
	// Create inserts a pending booking. The partial unique index over active
	// (hall, date, slot) rows is the authoritative conflict guard: a losing
	// concurrent insert returns ErrSlotConflict even when the application
	// pre-check passed.
	Create(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByCode(ctx context.Context, code string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// HasActive checks for a pending/approved booking on the slot.
	// excludeID is used during edits to ignore the booking itself.
	HasActive(ctx context.Context, hallID string, date time.Time, slot hall.Slot, excludeID string) (bool, error)

	// ListActiveBetween bulk-loads active bookings with booking_date in
	// [from, to) for availability rendering.
	ListActiveBetween(ctx context.Context, hallID string, from, to time.Time) ([]*Booking, error)

	// UpdateWithAudit persists booking changes and the audit entry in one
	// transaction.
	UpdateWithAudit(ctx context.Context, b *Booking, entry *audit.Entry) error

	// ExpirePending cancels all pending bookings created before cutoff and
	// returns how many rows changed. Re-running is a no-op.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

type pgxRepository struct {
	pool      *pgxpool.Pool
	auditRepo audit.Repository
}

func NewPgxRepository(pool *pgxpool.Pool, auditRepo audit.Repository) Repository {
	return &pgxRepository{pool: pool, auditRepo: auditRepo}
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	// ON CONFLICT infers the partial unique index over active slots; a
	// conflicting insert returns no row instead of raising.
	const query = `
		INSERT INTO public.bookings
			(booking_code, hall_id, booking_date, time_slot, status, user_name, phone_number, id_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (hall_id, booking_date, time_slot) WHERE status IN ('pending', 'approved')
		DO NOTHING
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		b.Code, b.HallID, b.Date, string(b.Slot), string(b.Status),
		b.UserName, b.PhoneNumber, b.IDNumber,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSlotConflict
		}
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			// The only other unique column is the booking code.
			return errCodeCollision
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

const bookingSelect = `b.id, b.booking_code, b.hall_id, h.slug, h.name,
	b.booking_date, b.time_slot, b.status, b.user_name, b.phone_number, b.id_number, b.created_at`

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	var slot, status string

	dest := []any{
		&b.ID, &b.Code, &b.HallID, &b.HallSlug, &b.HallName,
		&b.Date, &slot, &status, &b.UserName, &b.PhoneNumber, &b.IDNumber, &b.CreatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan booking failed: %w", err)
	}

	b.Slot = hall.Slot(slot)
	b.Status = Status(status)
	return &b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM public.bookings b
		JOIN public.halls h ON b.hall_id = h.id
		WHERE b.id = $1`, bookingSelect)
	return scanBooking(r.pool.QueryRow(ctx, query, id))
}

func (r *pgxRepository) GetByCode(ctx context.Context, code string) (*Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM public.bookings b
		JOIN public.halls h ON b.hall_id = h.id
		WHERE b.booking_code = $1`, bookingSelect)
	return scanBooking(r.pool.QueryRow(ctx, query, code))
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"b.id", "b.booking_code", "b.hall_id", "h.slug", "h.name",
		"b.booking_date", "b.time_slot", "b.status",
		"b.user_name", "b.phone_number", "b.id_number", "b.created_at",
		"count(*) OVER() as total_count",
	).
		From("public.bookings b").
		Join("public.halls h ON b.hall_id = h.id").
		OrderBy("b.booking_date ASC")

	if filter.HallID != "" {
		query = query.Where(squirrel.Eq{"b.hall_id": filter.HallID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": string(filter.Status)})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64((filter.Page - 1) * filter.PageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) HasActive(ctx context.Context, hallID string, date time.Time, slot hall.Slot, excludeID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"hall_id": hallID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"time_slot": string(slot)}).
		Where(squirrel.Eq{"status": []string{string(StatusPending), string(StatusApproved)}})

	if excludeID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check active slot query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active slot failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) ListActiveBetween(ctx context.Context, hallID string, from, to time.Time) ([]*Booking, error) {
	const query = `
		SELECT b.booking_date, b.time_slot, b.status
		FROM public.bookings b
		WHERE b.hall_id = $1
		  AND b.status IN ('pending', 'approved')
		  AND b.booking_date >= $2
		  AND b.booking_date < $3
	`

	rows, err := r.pool.Query(ctx, query, hallID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		var slot, status string
		if err := rows.Scan(&b.Date, &slot, &status); err != nil {
			return nil, fmt.Errorf("scan active booking failed: %w", err)
		}
		b.HallID = hallID
		b.Slot = hall.Slot(slot)
		b.Status = Status(status)
		bookings = append(bookings, &b)
	}
	return bookings, nil
}

func (r *pgxRepository) UpdateWithAudit(ctx context.Context, b *Booking, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("booking_date", b.Date).
		Set("time_slot", string(b.Slot)).
		Set("status", string(b.Status)).
		Set("user_name", b.UserName).
		Set("phone_number", b.PhoneNumber).
		Set("id_number", b.IDNumber).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			// Moving the booking onto an occupied slot trips the partial index.
			return ErrSlotConflict
		}
		return fmt.Errorf("update booking failed: %w", err)
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

func (r *pgxRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE public.bookings
		SET status = 'cancelled'
		WHERE status = 'pending' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
