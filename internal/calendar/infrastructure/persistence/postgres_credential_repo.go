package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/freebusy/internal/calendar/application/credentials"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCredentialRepository stores sealed calendar credentials in PostgreSQL.
type PostgresCredentialRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCredentialRepository creates a new PostgreSQL credential repository.
func NewPostgresCredentialRepository(pool *pgxpool.Pool) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{pool: pool}
}

// Save upserts the credential for an account.
func (r *PostgresCredentialRepository) Save(ctx context.Context, cred credentials.StoredCredential) error {
	query := `
		INSERT INTO calendar_credentials (
			account_id, username, secret, refresh_token, token_type, expiry, scopes, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (account_id) DO UPDATE SET
			username = EXCLUDED.username,
			secret = EXCLUDED.secret,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			scopes = EXCLUDED.scopes,
			updated_at = NOW()
	`

	var expiry *time.Time
	if !cred.Expiry.IsZero() {
		expiry = &cred.Expiry
	}
	scopes := cred.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		cred.AccountID,
		cred.Username,
		cred.Secret,
		cred.RefreshToken,
		cred.TokenType,
		expiry,
		scopes,
	)
	return err
}

// FindByAccountID fetches the credential for an account.
func (r *PostgresCredentialRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*credentials.StoredCredential, error) {
	query := `
		SELECT username, secret, refresh_token, token_type, expiry, scopes
		FROM calendar_credentials
		WHERE account_id = $1
	`

	cred := credentials.StoredCredential{AccountID: accountID}
	var expiry *time.Time
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&cred.Username, &cred.Secret, &cred.RefreshToken, &cred.TokenType, &expiry, &cred.Scopes,
	)
	if database.IsNoRows(err) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiry != nil {
		cred.Expiry = *expiry
	}
	return &cred, nil
}
