package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/application/credentials"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteCredentialRepository stores sealed calendar credentials in SQLite.
type SQLiteCredentialRepository struct {
	db *sql.DB
}

// NewSQLiteCredentialRepository creates a new SQLite credential repository.
func NewSQLiteCredentialRepository(db *sql.DB) *SQLiteCredentialRepository {
	return &SQLiteCredentialRepository{db: db}
}

// Save upserts the credential for an account.
func (r *SQLiteCredentialRepository) Save(ctx context.Context, cred credentials.StoredCredential) error {
	query := `
		INSERT INTO calendar_credentials (
			account_id, username, secret, refresh_token, token_type, expiry, scopes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			username = excluded.username,
			secret = excluded.secret,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`

	var expiry *string
	if !cred.Expiry.IsZero() {
		e := cred.Expiry.UTC().Format(time.RFC3339)
		expiry = &e
	}

	_, err := r.db.ExecContext(ctx, query,
		cred.AccountID.String(),
		cred.Username,
		cred.Secret,
		cred.RefreshToken,
		cred.TokenType,
		expiry,
		strings.Join(cred.Scopes, ","),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// FindByAccountID fetches the credential for an account.
func (r *SQLiteCredentialRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*credentials.StoredCredential, error) {
	query := `
		SELECT username, secret, refresh_token, token_type, expiry, scopes
		FROM calendar_credentials
		WHERE account_id = ?
	`

	cred := credentials.StoredCredential{AccountID: accountID}
	var (
		expiry sql.NullString
		scopes string
	)
	err := r.db.QueryRowContext(ctx, query, accountID.String()).Scan(
		&cred.Username, &cred.Secret, &cred.RefreshToken, &cred.TokenType, &expiry, &scopes,
	)
	if database.IsNoRows(err) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if expiry.Valid {
		cred.Expiry, _ = time.Parse(time.RFC3339, expiry.String)
	}
	cred.Scopes = credentials.ScopesFromEnv(scopes)
	return &cred, nil
}
