// usecase/events.usecase.go
package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"events-service/internal/config"
	"events-service/internal/domain"
	"events-service/internal/events"
	"events-service/internal/repository"
)

// RegistrationUsecase is the admission, status and result engine. Every
// mutating call runs in one transaction and publishes after commit.
type RegistrationUsecase struct {
	db          repository.Database
	wrapResults func(repository.EventResultRepository) repository.EventResultRepository
	limits      config.Limits
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

type Option func(*RegistrationUsecase)

// WithResults wraps every EventResult lookup, e.g. with a cache decorator.
// The wrapped repository is the one bound to the current transaction.
func WithResults(wrap func(next repository.EventResultRepository) repository.EventResultRepository) Option {
	return func(u *RegistrationUsecase) { u.wrapResults = wrap }
}

func WithPublisher(p events.Publisher) Option {
	return func(u *RegistrationUsecase) { u.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(u *RegistrationUsecase) { u.now = now }
}

func NewRegistrationUsecase(db repository.Database, limits config.Limits, logger *zap.Logger, opts ...Option) *RegistrationUsecase {
	u := &RegistrationUsecase{
		db:        db,
		limits:    limits,
		publisher: events.Noop{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *RegistrationUsecase) resultsFor(s repository.Store) repository.EventResultRepository {
	if u.wrapResults != nil {
		return u.wrapResults(s.Results())
	}
	return s.Results()
}

// publish never fails the caller: the registration is already committed.
func (u *RegistrationUsecase) publish(ctx context.Context, ev *events.RegistrationEvent) {
	if err := u.publisher.Publish(ctx, ev); err != nil {
		publishFailures.Inc()
		u.logger.Warn("registration event not delivered",
			zap.String("event_type", ev.EventType),
			zap.Int64("registration_id", ev.RegistrationID),
			zap.Error(err))
	}
}

func (u *RegistrationUsecase) audit(ctx context.Context, s repository.Store, actorID int64, action, table string, recordID int64, oldValue, newValue any) error {
	entry, err := domain.NewAuditLog(actorID, action, table, recordID, oldValue, newValue)
	if err != nil {
		return err
	}
	return s.Audit().Append(ctx, entry)
}

func individualEvent(eventType string, reg *domain.IndividualRegistration, actorID int64) *events.RegistrationEvent {
	ev := &events.RegistrationEvent{
		EventType:      eventType,
		Kind:           domain.KindIndividual,
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		TempleID:       reg.TempleID,
		ActorID:        actorID,
		Status:         reg.Status,
		EventResultID:  reg.EventResultID,
	}
	if reg.Result != nil {
		ev.Points = &reg.Result.Points
	}
	return ev
}

func teamEvent(eventType string, reg *domain.TeamRegistration, actorID int64) *events.RegistrationEvent {
	ev := &events.RegistrationEvent{
		EventType:      eventType,
		Kind:           domain.KindTeam,
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		TempleID:       reg.TempleID,
		ActorID:        actorID,
		Status:         reg.Status,
		EventResultID:  reg.EventResultID,
	}
	if reg.Result != nil {
		ev.Points = &reg.Result.Points
	}
	return ev
}
