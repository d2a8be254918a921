package app

import (
	"context"
	"database/sql"
	"fmt"

	availabilityDomain "github.com/felixgeelhaar/freebusy/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/freebusy/internal/availability/infrastructure/persistence"
	"github.com/felixgeelhaar/freebusy/internal/calendar/application/credentials"
	calendarDomain "github.com/felixgeelhaar/freebusy/internal/calendar/domain"
	calendarPersistence "github.com/felixgeelhaar/freebusy/internal/calendar/infrastructure/persistence"
	"github.com/felixgeelhaar/freebusy/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileStore reads and writes member profiles.
type ProfileStore interface {
	availabilityDomain.ProfileRepository
	Save(ctx context.Context, profile *availabilityDomain.MemberProfile) error
}

// BookingStore reads and writes bookings.
type BookingStore interface {
	availabilityDomain.BookingRepository
	Add(ctx context.Context, id availabilityDomain.MemberID, slot availabilityDomain.TimeRange) (uuid.UUID, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
}

// TimeOffStore reads and writes member leave and holidays.
type TimeOffStore interface {
	availabilityDomain.TimeOffRepository
	Add(ctx context.Context, off availabilityDomain.TimeOff) (uuid.UUID, error)
}

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	driver database.Driver
	db     *sql.DB
	pool   *pgxpool.Pool
}

// NewSQLiteRepositoryFactory creates a factory over a SQLite database.
func NewSQLiteRepositoryFactory(db *sql.DB) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverSQLite, db: db}
}

// NewPostgresRepositoryFactory creates a factory over a PostgreSQL pool.
func NewPostgresRepositoryFactory(pool *pgxpool.Pool) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverPostgres, pool: pool}
}

// AccountRepository creates a calendar account repository for the configured driver.
func (f *RepositoryFactory) AccountRepository() (calendarDomain.AccountRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return calendarPersistence.NewPostgresAccountRepository(f.pool), nil
	case database.DriverSQLite:
		return calendarPersistence.NewSQLiteAccountRepository(f.db), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// CredentialRepository creates a credential repository for the configured driver.
func (f *RepositoryFactory) CredentialRepository() (credentials.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return calendarPersistence.NewPostgresCredentialRepository(f.pool), nil
	case database.DriverSQLite:
		return calendarPersistence.NewSQLiteCredentialRepository(f.db), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// ProfileRepository creates a member profile repository for the configured driver.
func (f *RepositoryFactory) ProfileRepository() (ProfileStore, error) {
	switch f.driver {
	case database.DriverPostgres:
		return availabilityPersistence.NewPostgresProfileRepository(f.pool), nil
	case database.DriverSQLite:
		return availabilityPersistence.NewSQLiteProfileRepository(f.db), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// BookingRepository creates a booking repository for the configured driver.
func (f *RepositoryFactory) BookingRepository() (BookingStore, error) {
	switch f.driver {
	case database.DriverPostgres:
		return availabilityPersistence.NewPostgresBookingRepository(f.pool), nil
	case database.DriverSQLite:
		return availabilityPersistence.NewSQLiteBookingRepository(f.db), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// TimeOffRepository creates a time off repository for the configured driver.
func (f *RepositoryFactory) TimeOffRepository() (TimeOffStore, error) {
	switch f.driver {
	case database.DriverPostgres:
		return availabilityPersistence.NewPostgresTimeOffRepository(f.pool), nil
	case database.DriverSQLite:
		return availabilityPersistence.NewSQLiteTimeOffRepository(f.db), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Ping checks the underlying connection.
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	switch f.driver {
	case database.DriverPostgres:
		return f.pool.Ping(ctx)
	case database.DriverSQLite:
		return f.db.PingContext(ctx)
	default:
		return fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}
