package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTimeOffRepository implements domain.TimeOffRepository using PostgreSQL.
type PostgresTimeOffRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTimeOffRepository creates a new PostgreSQL time off repository.
func NewPostgresTimeOffRepository(pool *pgxpool.Pool) *PostgresTimeOffRepository {
	return &PostgresTimeOffRepository{pool: pool}
}

// IsOff reports whether any period of the member's covers date.
func (r *PostgresTimeOffRepository) IsOff(ctx context.Context, id domain.MemberID, date time.Time) (bool, error) {
	var off bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM member_time_off
			WHERE LOWER(member_id) = LOWER($1) AND from_date <= $2::date AND to_date >= $2::date
		)
	`, string(id), date.Format(domain.DateLayout)).Scan(&off)
	return off, err
}

// Add records a period and returns its ID.
func (r *PostgresTimeOffRepository) Add(ctx context.Context, off domain.TimeOff) (uuid.UUID, error) {
	off, err := domain.NewTimeOff(off.MemberID, off.From, off.To, off.Reason)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO member_time_off (id, member_id, from_date, to_date, reason)
		VALUES ($1, $2, $3::date, $4::date, $5)
	`, id, string(off.MemberID), off.From.Format(domain.DateLayout), off.To.Format(domain.DateLayout), off.Reason)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
