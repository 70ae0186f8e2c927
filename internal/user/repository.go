package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hall-booking-backend/internal/audit"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int, error)

	// UpdatePassword replaces the stored hash and appends the audit entry
	// in one transaction.
	UpdatePassword(ctx context.Context, id, passwordHash string, entry *audit.Entry) error
}

type pgxRepository struct {
	pool      *pgxpool.Pool
	auditRepo audit.Repository
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool, auditRepo audit.Repository) Repository {
	return &pgxRepository{pool: pool, auditRepo: auditRepo}
}

const userColumns = "id, username, password_hash, role, hall_id, is_site_admin, created_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role *string
	var hallID *string

	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &hallID, &u.IsSiteAdmin, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user failed: %w", err)
	}

	if role != nil {
		u.Role = Role(*role)
	}
	if hallID != nil {
		u.HallID = *hallID
	}
	return &u, nil
}

func (r *pgxRepository) Create(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO public.users (username, password_hash, role, hall_id, is_site_admin)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, '')::uuid, $5)
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(
		ctx,
		query,
		u.Username,
		u.PasswordHash,
		string(u.Role),
		u.HallID,
		u.IsSiteAdmin,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user failed: %w", err)
	}

	return nil
}

func (r *pgxRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM public.users WHERE username = $1", userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM public.users WHERE id = $1", userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "username", "password_hash", "role", "hall_id", "is_site_admin", "created_at",
		"count(*) OVER() as total_count",
	).
		From("public.users").
		OrderBy("created_at ASC")

	if filter.HallID != "" {
		query = query.Where(squirrel.Eq{"hall_id": filter.HallID})
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
		return nil, 0, fmt.Errorf("build list users query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	var total int

	for rows.Next() {
		var u User
		var role, hallID *string
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &hallID, &u.IsSiteAdmin, &u.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan user failed: %w", err)
		}
		if role != nil {
			u.Role = Role(*role)
		}
		if hallID != nil {
			u.HallID = *hallID
		}
		users = append(users, &u)
	}

	return users, total, nil
}

func (r *pgxRepository) UpdatePassword(ctx context.Context, id, passwordHash string, entry *audit.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update password tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, "UPDATE public.users SET password_hash = $2 WHERE id = $1", id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password failed: %w", err)
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
