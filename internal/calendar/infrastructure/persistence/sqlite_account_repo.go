package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const accountColumns = `id, owner_email, provider, calendar_id, ignore_all_day_events, is_enabled, config, created_at`

// SQLiteAccountRepository implements domain.AccountRepository using SQLite.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAccountRepository creates a new SQLite calendar account repository.
func NewSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

// Save persists an account (create or update).
func (r *SQLiteAccountRepository) Save(ctx context.Context, acc *domain.CalendarAccount) error {
	query := `
		INSERT INTO calendar_accounts (
			id, owner_email, provider, calendar_id, ignore_all_day_events, is_enabled,
			config, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			ignore_all_day_events = excluded.ignore_all_day_events,
			is_enabled = excluded.is_enabled,
			config = excluded.config,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		acc.ID().String(),
		acc.OwnerEmail(),
		acc.Provider().String(),
		acc.CalendarID(),
		boolToInt(acc.IgnoreAllDayEvents()),
		boolToInt(acc.IsEnabled()),
		acc.ConfigJSON(),
		acc.CreatedAt().UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// FindByID finds an account by ID.
func (r *SQLiteAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM calendar_accounts WHERE id = ?`, id.String())
	acc, err := scanSQLiteAccount(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrAccountNotFound
	}
	return acc, err
}

// FindByOwner lists the owner's accounts, oldest first.
func (r *SQLiteAccountRepository) FindByOwner(ctx context.Context, ownerEmail string) ([]*domain.CalendarAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM calendar_accounts WHERE owner_email = ? COLLATE NOCASE ORDER BY created_at, id`,
		ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.CalendarAccount
	for rows.Next() {
		acc, err := scanSQLiteAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAccount(row rowScanner) (*domain.CalendarAccount, error) {
	var (
		idStr      string
		owner      string
		provider   string
		calendarID string
		ignoreAll  int
		enabled    int
		config     sql.NullString
		createdAt  string
	)
	if err := row.Scan(&idStr, &owner, &provider, &calendarID, &ignoreAll, &enabled, &config, &createdAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	created, _ := time.Parse(time.RFC3339, createdAt)

	return domain.RehydrateCalendarAccount(
		id, owner, domain.ProviderType(provider), calendarID,
		ignoreAll == 1, enabled == 1, config.String, created,
	), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
