package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
)

// SQLiteProfileRepository implements domain.ProfileRepository using SQLite.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// NewSQLiteProfileRepository creates a new SQLite member profile repository.
func NewSQLiteProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

// FindByMemberID loads a profile and its weekly windows. Member IDs compare
// case-insensitively.
func (r *SQLiteProfileRepository) FindByMemberID(ctx context.Context, id domain.MemberID) (*domain.MemberProfile, error) {
	var (
		p       domain.MemberProfile
		member  string
		account sql.NullString
		enabled int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT member_id, calendar_account_id, scheduling_enabled, time_zone
		FROM member_profiles
		WHERE member_id = ?
	`, string(id)).Scan(&member, &account, &enabled, &p.TimeZone)
	if database.IsNoRows(err) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.MemberID = domain.MemberID(member)
	p.CalendarAccountRef = account.String
	p.SchedulingEnabled = enabled == 1

	rows, err := r.db.QueryContext(ctx, `
		SELECT weekday, start_time, end_time
		FROM member_weekly_windows
		WHERE member_id = ?
		ORDER BY weekday
	`, member)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekday    int
			start, end string
		)
		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return nil, err
		}
		w, err := parseWindow(weekday, start, end)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", member, err)
		}
		p.WeeklyWindows = append(p.WeeklyWindows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save replaces a profile and its windows.
func (r *SQLiteProfileRepository) Save(ctx context.Context, p *domain.MemberProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	var account any
	if p.HasCalendar() {
		account = p.CalendarAccountRef
	}
	tz := p.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO member_profiles (member_id, calendar_account_id, scheduling_enabled, time_zone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id) DO UPDATE SET
			calendar_account_id = excluded.calendar_account_id,
			scheduling_enabled = excluded.scheduling_enabled,
			time_zone = excluded.time_zone,
			updated_at = excluded.updated_at
	`, string(p.MemberID), account, boolToInt(p.SchedulingEnabled), tz, now, now)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM member_weekly_windows WHERE member_id = ?`, string(p.MemberID)); err != nil {
		return err
	}
	for _, w := range p.WeeklyWindows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO member_weekly_windows (member_id, weekday, start_time, end_time)
			VALUES (?, ?, ?, ?)
		`, string(p.MemberID), int(w.Weekday), w.Start.String(), w.End.String())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func parseWindow(weekday int, start, end string) (domain.WeeklyWindow, error) {
	s, err := domain.ParseTimeOfDay(start)
	if err != nil {
		return domain.WeeklyWindow{}, err
	}
	e, err := domain.ParseTimeOfDay(end)
	if err != nil {
		return domain.WeeklyWindow{}, err
	}
	return domain.WeeklyWindow{Weekday: time.Weekday(weekday), Start: s, End: e}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
