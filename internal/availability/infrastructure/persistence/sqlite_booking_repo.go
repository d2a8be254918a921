package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/google/uuid"
)

// Timestamps are stored as UTC RFC3339 so text comparison orders them.
const sqliteTimeLayout = "2006-01-02T15:04:05Z"

// SQLiteBookingRepository implements domain.BookingRepository using SQLite.
type SQLiteBookingRepository struct {
	db *sql.DB
}

// NewSQLiteBookingRepository creates a new SQLite booking repository.
func NewSQLiteBookingRepository(db *sql.DB) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{db: db}
}

// ListForMember returns the member's live bookings sharing positive time with within,
// ordered by start.
func (r *SQLiteBookingRepository) ListForMember(ctx context.Context, id domain.MemberID, within domain.TimeRange) ([]domain.TimeRange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT starts_at, ends_at
		FROM bookings
		WHERE member_id = ? AND cancelled = 0 AND starts_at < ? AND ends_at > ?
		ORDER BY starts_at, ends_at
	`, string(id), formatSQLiteTime(within.End), formatSQLiteTime(within.Start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make([]domain.TimeRange, 0)
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, err
		}
		s, err := time.Parse(sqliteTimeLayout, start)
		if err != nil {
			return nil, err
		}
		e, err := time.Parse(sqliteTimeLayout, end)
		if err != nil {
			return nil, err
		}
		booked = append(booked, domain.TimeRange{Start: s, End: e})
	}
	return booked, rows.Err()
}

// Add records a booking and returns its ID.
func (r *SQLiteBookingRepository) Add(ctx context.Context, id domain.MemberID, slot domain.TimeRange) (uuid.UUID, error) {
	if _, err := domain.NewTimeRange(slot.Start, slot.End); err != nil {
		return uuid.Nil, err
	}
	bookingID := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (id, member_id, starts_at, ends_at, cancelled, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, bookingID.String(), string(id), formatSQLiteTime(slot.Start), formatSQLiteTime(slot.End), formatSQLiteTime(time.Now()))
	if err != nil {
		return uuid.Nil, err
	}
	return bookingID, nil
}

// Cancel marks a booking cancelled. Cancelled bookings no longer block time.
func (r *SQLiteBookingRepository) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET cancelled = 1 WHERE id = ? AND cancelled = 0`, bookingID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}
