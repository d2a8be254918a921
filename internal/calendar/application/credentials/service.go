package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	sharedCrypto "github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/crypto"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNotFound is returned when an account has no stored credential.
var ErrNotFound = errors.New("calendar credential not found")

// Repository persists sealed credentials, one per calendar account.
type Repository interface {
	Save(ctx context.Context, cred StoredCredential) error
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*StoredCredential, error)
}

// StoredCredential is the sealed form of an account's secret. Secret holds the
// OAuth access token or the CalDAV password.
type StoredCredential struct {
	AccountID    uuid.UUID
	Username     string
	Secret       []byte
	RefreshToken []byte
	TokenType    string
	Expiry       time.Time
	Scopes       []string
}

// OAuthConfig describes one provider's OAuth client.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Service stores account secrets sealed and hands them back to calendar providers.
// Token acquisition is left to the operator; the service only refreshes.
type Service struct {
	oauthConfig *oauth2.Config
	repo        Repository
	sealer      sharedCrypto.Sealer
}

// NewService creates a credential service. cfg may be nil for CalDAV-only use.
func NewService(cfg *OAuthConfig, repo Repository, sealer sharedCrypto.Sealer) (*Service, error) {
	if repo == nil || sealer == nil {
		return nil, errors.New("credential dependencies are required")
	}

	s := &Service{repo: repo, sealer: sealer}
	if cfg != nil {
		if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.TokenURL == "" {
			return nil, errors.New("oauth configuration is incomplete")
		}
		s.oauthConfig = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		}
	}
	return s, nil
}

// StoreToken seals and saves an OAuth token for an account.
func (s *Service) StoreToken(ctx context.Context, accountID uuid.UUID, token *oauth2.Token) error {
	owner := accountID[:]

	access, err := s.sealer.Seal([]byte(token.AccessToken), owner)
	if err != nil {
		return err
	}

	var refresh []byte
	if token.RefreshToken != "" {
		if refresh, err = s.sealer.Seal([]byte(token.RefreshToken), owner); err != nil {
			return err
		}
	}

	var scopes []string
	if s.oauthConfig != nil {
		scopes = s.oauthConfig.Scopes
	}

	return s.repo.Save(ctx, StoredCredential{
		AccountID:    accountID,
		Secret:       access,
		RefreshToken: refresh,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Scopes:       scopes,
	})
}

// StorePassword seals and saves CalDAV basic-auth credentials for an account.
func (s *Service) StorePassword(ctx context.Context, accountID uuid.UUID, username, password string) error {
	sealed, err := s.sealer.Seal([]byte(password), accountID[:])
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, StoredCredential{
		AccountID: accountID,
		Username:  username,
		Secret:    sealed,
	})
}

// TokenSource returns a refreshing token source for the account.
func (s *Service) TokenSource(ctx context.Context, accountID uuid.UUID) (oauth2.TokenSource, error) {
	if s.oauthConfig == nil {
		return nil, errors.New("oauth client not configured")
	}
	token, err := s.loadToken(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.oauthConfig.TokenSource(ctx, token), nil
}

// Credentials returns the CalDAV username and password for the account.
func (s *Service) Credentials(ctx context.Context, accountID uuid.UUID) (string, string, error) {
	stored, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return "", "", err
	}
	password, err := s.sealer.Open(stored.Secret, accountID[:])
	if err != nil {
		return "", "", err
	}
	return stored.Username, string(password), nil
}

func (s *Service) loadToken(ctx context.Context, accountID uuid.UUID) (*oauth2.Token, error) {
	stored, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	access, err := s.sealer.Open(stored.Secret, accountID[:])
	if err != nil {
		return nil, err
	}

	refresh := ""
	if len(stored.RefreshToken) > 0 {
		b, err := s.sealer.Open(stored.RefreshToken, accountID[:])
		if err != nil {
			return nil, err
		}
		refresh = string(b)
	}

	return &oauth2.Token{
		AccessToken:  string(access),
		RefreshToken: refresh,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}, nil
}

// ScopesFromEnv parses a comma-separated list of scopes.
func ScopesFromEnv(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}
