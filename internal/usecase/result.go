package usecase

import (
	"context"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/events"
	"events-service/internal/repository"
)

// resolveResult maps a rank to the seeded EventResult for the event's type.
// CLEAR resolves to nil. Points are never derived from the rank itself.
func (u *RegistrationUsecase) resolveResult(ctx context.Context, s repository.Store, eventID int64, rank domain.Rank) (*domain.EventResult, error) {
	if rank == domain.RankClear {
		return nil, nil
	}
	event, err := s.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := u.resultsFor(s).GetByTypeAndRank(ctx, event.EventTypeID, rank)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func resultRef(res *domain.EventResult) map[string]any {
	if res == nil {
		return map[string]any{"event_result_id": nil}
	}
	return map[string]any{"event_result_id": res.ID, "rank": res.Rank, "points": res.Points}
}

// SetIndividualResult attaches the result for rank, or detaches it on CLEAR.
// The change is audited even when nothing changed.
func (u *RegistrationUsecase) SetIndividualResult(ctx context.Context, registrationID int64, rank domain.Rank, actorID int64) (*domain.IndividualRegistration, error) {
	if !rank.Valid() {
		return nil, rejected("set_result", domain.ErrInvalidRank)
	}

	var reg *domain.IndividualRegistration
	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		var err error
		reg, err = s.Registrations().LockIndividual(ctx, registrationID)
		if err != nil {
			return err
		}
		res, err := u.resolveResult(ctx, s, reg.EventID, rank)
		if err != nil {
			return err
		}

		before := resultRef(reg.Result)
		reg.Result = res
		reg.EventResultID = nil
		if res != nil {
			reg.EventResultID = &res.ID
		}
		if err := s.Registrations().UpdateIndividual(ctx, reg); err != nil {
			return err
		}
		return u.audit(ctx, s, actorID, domain.ActionSetResult, domain.TableIndividualRegistrations, reg.ID, before, resultRef(res))
	})
	if err != nil {
		return nil, rejected("set_result", err)
	}

	u.logger.Info("individual result set",
		zap.Int64("registration_id", reg.ID),
		zap.String("rank", string(rank)),
		zap.Int64("actor_id", actorID))
	u.publish(ctx, individualEvent(events.TypeResultChanged, reg, actorID))
	return reg, nil
}

func (u *RegistrationUsecase) SetTeamResult(ctx context.Context, registrationID int64, rank domain.Rank, actorID int64) (*domain.TeamRegistration, error) {
	if !rank.Valid() {
		return nil, rejected("set_result", domain.ErrInvalidRank)
	}

	var reg *domain.TeamRegistration
	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		var err error
		reg, err = s.Registrations().LockTeam(ctx, registrationID)
		if err != nil {
			return err
		}
		res, err := u.resolveResult(ctx, s, reg.EventID, rank)
		if err != nil {
			return err
		}

		before := resultRef(reg.Result)
		reg.Result = res
		reg.EventResultID = nil
		if res != nil {
			reg.EventResultID = &res.ID
		}
		if err := s.Registrations().UpdateTeam(ctx, reg); err != nil {
			return err
		}
		return u.audit(ctx, s, actorID, domain.ActionSetResult, domain.TableTeamRegistrations, reg.ID, before, resultRef(res))
	})
	if err != nil {
		return nil, rejected("set_result", err)
	}

	u.logger.Info("team result set",
		zap.Int64("registration_id", reg.ID),
		zap.String("rank", string(rank)),
		zap.Int64("actor_id", actorID))
	u.publish(ctx, teamEvent(events.TypeResultChanged, reg, actorID))
	return reg, nil
}
