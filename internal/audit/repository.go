package audit

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts over *pgxpool.Pool and pgx.Tx so audit writes can join
// the transaction of the mutation they record.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and appends audit log entries.
type Repository interface {
	// Append inserts one entry using q, which is either the pool or the
	// surrounding transaction.
	Append(ctx context.Context, q Querier, e *Entry) error
	List(ctx context.Context, filter Filter) ([]*Entry, int, error)
}

type pgxRepository struct {
	db Querier
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{db: pool}
}

func (r *pgxRepository) Append(ctx context.Context, q Querier, e *Entry) error {
	// Site admin actions carry no hall; store NULL rather than an empty uuid.
	const query = `
		INSERT INTO public.audit_logs (hall_id, user_id, username, action, details)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, '')::uuid, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := q.QueryRow(ctx, query, e.HallID, e.UserID, e.Username, e.Action, e.Details).Scan(&e.ID, &e.Timestamp); err != nil {
		return fmt.Errorf("append audit entry failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Entry, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "hall_id", "user_id", "username", "action", "details", "created_at",
		"count(*) OVER() as total_count",
	).
		From("public.audit_logs").
		OrderBy("created_at DESC")

	if filter.HallID != "" {
		query = query.Where(squirrel.Eq{"hall_id": filter.HallID})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list audit entries query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	var total int

	for rows.Next() {
		var e Entry
		var hallID, userID *string
		if err := rows.Scan(
			&e.ID, &hallID, &userID, &e.Username, &e.Action, &e.Details, &e.Timestamp, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry failed: %w", err)
		}
		if hallID != nil {
			e.HallID = *hallID
		}
		if userID != nil {
			e.UserID = *userID
		}
		entries = append(entries, &e)
	}

	return entries, total, nil
}
