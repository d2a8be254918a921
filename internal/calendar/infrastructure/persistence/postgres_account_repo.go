package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresAccountColumns = `id, owner_email, provider, calendar_id, ignore_all_day_events, is_enabled, config::text, created_at`

// PostgresAccountRepository implements domain.AccountRepository using PostgreSQL.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgreSQL calendar account repository.
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Save persists an account (create or update).
func (r *PostgresAccountRepository) Save(ctx context.Context, acc *domain.CalendarAccount) error {
	query := `
		INSERT INTO calendar_accounts (
			id, owner_email, provider, calendar_id, ignore_all_day_events, is_enabled,
			config, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			calendar_id = EXCLUDED.calendar_id,
			ignore_all_day_events = EXCLUDED.ignore_all_day_events,
			is_enabled = EXCLUDED.is_enabled,
			config = EXCLUDED.config,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		acc.ID(),
		acc.OwnerEmail(),
		acc.Provider().String(),
		acc.CalendarID(),
		acc.IgnoreAllDayEvents(),
		acc.IsEnabled(),
		acc.ConfigJSON(),
		acc.CreatedAt(),
	)
	return err
}

// FindByID finds an account by ID.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarAccount, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postgresAccountColumns+` FROM calendar_accounts WHERE id = $1`, id)
	acc, err := scanPostgresAccount(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrAccountNotFound
	}
	return acc, err
}

// FindByOwner lists the owner's accounts, oldest first.
func (r *PostgresAccountRepository) FindByOwner(ctx context.Context, ownerEmail string) ([]*domain.CalendarAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+postgresAccountColumns+` FROM calendar_accounts WHERE LOWER(owner_email) = LOWER($1) ORDER BY created_at, id`,
		ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.CalendarAccount
	for rows.Next() {
		acc, err := scanPostgresAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func scanPostgresAccount(row rowScanner) (*domain.CalendarAccount, error) {
	var (
		id         uuid.UUID
		owner      string
		provider   string
		calendarID string
		ignoreAll  bool
		enabled    bool
		config     string
		createdAt  time.Time
	)
	if err := row.Scan(&id, &owner, &provider, &calendarID, &ignoreAll, &enabled, &config, &createdAt); err != nil {
		return nil, err
	}
	return domain.RehydrateCalendarAccount(
		id, owner, domain.ProviderType(provider), calendarID,
		ignoreAll, enabled, config, createdAt,
	), nil
}
