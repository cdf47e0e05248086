package repository

import (
	"context"

	"events-service/internal/domain"
)

type TempleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Temple, error)
	List(ctx context.Context) ([]*domain.Temple, error)
	Upsert(ctx context.Context, t *domain.Temple) error
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
	// GetByIDs returns the profiles that exist, keyed by id. Missing ids are
	// simply absent from the map.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Profile, error)
	// LockByID loads the profile and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, id int64) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
}

type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	LockByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error)
	UpsertEventType(ctx context.Context, et *domain.EventType) error
	UpsertAgeCategory(ctx context.Context, c *domain.AgeCategory) error
	Upsert(ctx context.Context, e *domain.Event) error
}

type EventResultRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.EventResult, error)
	GetByTypeAndRank(ctx context.Context, eventTypeID int64, rank domain.Rank) (*domain.EventResult, error)
	ListByEventType(ctx context.Context, eventTypeID int64) ([]*domain.EventResult, error)
	Upsert(ctx context.Context, r *domain.EventResult) error
}

// RegistrationRepository covers both individual and team registrations.
// Soft-deleted rows are invisible to every method except UpdateIndividual.
type RegistrationRepository interface {
	CountActiveByUser(ctx context.Context, userID int64) (int, error)
	CountActiveByTempleEvent(ctx context.Context, templeID, eventID int64) (int, error)
	IndividualExists(ctx context.Context, userID, eventID int64) (bool, error)
	CreateIndividual(ctx context.Context, r *domain.IndividualRegistration) error
	GetIndividual(ctx context.Context, id int64) (*domain.IndividualRegistration, error)
	LockIndividual(ctx context.Context, id int64) (*domain.IndividualRegistration, error)
	UpdateIndividual(ctx context.Context, r *domain.IndividualRegistration) error
	ListIndividualByUser(ctx context.Context, userID int64) ([]*domain.IndividualRegistration, error)
	ListIndividualByTemple(ctx context.Context, templeID int64, f domain.RegistrationFilter) ([]*domain.IndividualRegistration, error)

	TeamExists(ctx context.Context, templeID, eventID int64) (bool, error)
	CreateTeam(ctx context.Context, r *domain.TeamRegistration) error
	GetTeam(ctx context.Context, id int64) (*domain.TeamRegistration, error)
	LockTeam(ctx context.Context, id int64) (*domain.TeamRegistration, error)
	// UpdateTeam persists status, result and replaces the member list.
	UpdateTeam(ctx context.Context, r *domain.TeamRegistration) error
	ListTeamByTemple(ctx context.Context, templeID int64, f domain.RegistrationFilter) ([]*domain.TeamRegistration, error)
}

type AuditRepository interface {
	Append(ctx context.Context, l *domain.AuditLog) error
	List(ctx context.Context, q domain.AuditLogQuery) ([]*domain.AuditLog, error)
}

// Store is a set of repositories sharing one connection or transaction.
type Store interface {
	Temples() TempleRepository
	Profiles() ProfileRepository
	Events() EventRepository
	Results() EventResultRepository
	Registrations() RegistrationRepository
	Audit() AuditRepository
}

// TxManager runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// Database is what the service wires: plain reads plus transactions.
type Database interface {
	Store
	TxManager
	Close()
}
