package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/google/uuid"
)

// SQLiteTimeOffRepository implements domain.TimeOffRepository using SQLite.
// Dates are stored as YYYY-MM-DD so text comparison orders them.
type SQLiteTimeOffRepository struct {
	db *sql.DB
}

// NewSQLiteTimeOffRepository creates a new SQLite time off repository.
func NewSQLiteTimeOffRepository(db *sql.DB) *SQLiteTimeOffRepository {
	return &SQLiteTimeOffRepository{db: db}
}

// IsOff reports whether any period of the member's covers date.
func (r *SQLiteTimeOffRepository) IsOff(ctx context.Context, id domain.MemberID, date time.Time) (bool, error) {
	day := date.Format(domain.DateLayout)
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM member_time_off
		WHERE member_id = ? AND from_date <= ? AND to_date >= ?
	`, string(id), day, day).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Add records a period and returns its ID.
func (r *SQLiteTimeOffRepository) Add(ctx context.Context, off domain.TimeOff) (uuid.UUID, error) {
	off, err := domain.NewTimeOff(off.MemberID, off.From, off.To, off.Reason)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO member_time_off (id, member_id, from_date, to_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), string(off.MemberID), off.From.Format(domain.DateLayout), off.To.Format(domain.DateLayout), off.Reason, formatSQLiteTime(time.Now()))
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
