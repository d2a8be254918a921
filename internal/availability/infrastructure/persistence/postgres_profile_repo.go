package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/freebusy/internal/availability/domain"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProfileRepository implements domain.ProfileRepository using PostgreSQL.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProfileRepository creates a new PostgreSQL member profile repository.
func NewPostgresProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// FindByMemberID loads a profile and its weekly windows.
func (r *PostgresProfileRepository) FindByMemberID(ctx context.Context, id domain.MemberID) (*domain.MemberProfile, error) {
	var (
		p       domain.MemberProfile
		member  string
		account *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT member_id, calendar_account_id::text, scheduling_enabled, time_zone
		FROM member_profiles
		WHERE LOWER(member_id) = LOWER($1)
	`, string(id)).Scan(&member, &account, &p.SchedulingEnabled, &p.TimeZone)
	if database.IsNoRows(err) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.MemberID = domain.MemberID(member)
	if account != nil {
		p.CalendarAccountRef = *account
	}

	rows, err := r.pool.Query(ctx, `
		SELECT weekday, start_time::text, end_time::text
		FROM member_weekly_windows
		WHERE member_id = $1
		ORDER BY weekday
	`, member)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			weekday    int16
			start, end string
		)
		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return nil, err
		}
		w, err := parseWindow(int(weekday), start, end)
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
func (r *PostgresProfileRepository) Save(ctx context.Context, p *domain.MemberProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tz := p.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	var account *string
	if p.HasCalendar() {
		account = &p.CalendarAccountRef
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO member_profiles (member_id, calendar_account_id, scheduling_enabled, time_zone)
			VALUES ($1, $2::uuid, $3, $4)
			ON CONFLICT (member_id) DO UPDATE SET
				calendar_account_id = EXCLUDED.calendar_account_id,
				scheduling_enabled = EXCLUDED.scheduling_enabled,
				time_zone = EXCLUDED.time_zone,
				updated_at = NOW()
		`, string(p.MemberID), account, p.SchedulingEnabled, tz)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM member_weekly_windows WHERE member_id = $1`, string(p.MemberID)); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, w := range p.WeeklyWindows {
			batch.Queue(`
				INSERT INTO member_weekly_windows (member_id, weekday, start_time, end_time)
				VALUES ($1, $2, $3::time, $4::time)
			`, string(p.MemberID), int16(w.Weekday), w.Start.String(), w.End.String())
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
