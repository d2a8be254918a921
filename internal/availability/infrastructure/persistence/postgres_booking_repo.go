package persistence

import (
	"context"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBookingRepository implements domain.BookingRepository using PostgreSQL.
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository.
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// ListForMember returns the member's live bookings sharing positive time with within.
func (r *PostgresBookingRepository) ListForMember(ctx context.Context, id domain.MemberID, within domain.TimeRange) ([]domain.TimeRange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT starts_at, ends_at
		FROM bookings
		WHERE LOWER(member_id) = LOWER($1) AND NOT cancelled AND starts_at < $2 AND ends_at > $3
		ORDER BY starts_at, ends_at
	`, string(id), within.End, within.Start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make([]domain.TimeRange, 0)
	for rows.Next() {
		var tr domain.TimeRange
		if err := rows.Scan(&tr.Start, &tr.End); err != nil {
			return nil, err
		}
		booked = append(booked, tr.UTC())
	}
	return booked, rows.Err()
}

// Add records a booking and returns its ID.
func (r *PostgresBookingRepository) Add(ctx context.Context, id domain.MemberID, slot domain.TimeRange) (uuid.UUID, error) {
	if _, err := domain.NewTimeRange(slot.Start, slot.End); err != nil {
		return uuid.Nil, err
	}
	bookingID := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (id, member_id, starts_at, ends_at)
		VALUES ($1, $2, $3, $4)
	`, bookingID, string(id), slot.Start, slot.End)
	if err != nil {
		return uuid.Nil, err
	}
	return bookingID, nil
}

// Cancel marks a booking cancelled.
func (r *PostgresBookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bookings SET cancelled = TRUE WHERE id = $1 AND NOT cancelled`, bookingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}
