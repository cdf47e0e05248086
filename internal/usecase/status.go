package usecase

import (
	"context"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/events"
	"events-service/internal/repository"
)

// StatusChange is the result of a status overwrite. Exactly one of
// Individual and Team is set.
type StatusChange struct {
	Kind       domain.RegistrationKind        `json:"kind"`
	Individual *domain.IndividualRegistration `json:"individual,omitempty"`
	Team       *domain.TeamRegistration       `json:"team,omitempty"`
	Previous   domain.RegistrationStatus      `json:"previous_status"`
}

// UpdateRegistrationStatus overwrites the status of a registration. Any
// status may move to any other.
//
// With scoped set the actor must be a temple admin of the registration's
// temple. Without it the actor must be a super-user and no temple check is
// made. The actor's role and temple come from the stored profile.
func (u *RegistrationUsecase) UpdateRegistrationStatus(ctx context.Context, kind domain.RegistrationKind, registrationID int64, status domain.RegistrationStatus, actorID int64, scoped bool) (*StatusChange, error) {
	if !status.Valid() {
		return nil, rejected("update_status", domain.ErrInvalidStatus)
	}

	change := &StatusChange{Kind: kind}
	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		switch kind {
		case domain.KindIndividual:
			reg, err := s.Registrations().LockIndividual(ctx, registrationID)
			if err != nil {
				return err
			}
			if err := authorizeStatus(ctx, s, actorID, reg.TempleID, scoped); err != nil {
				return err
			}
			change.Previous = reg.Status
			reg.Status = status
			if err := s.Registrations().UpdateIndividual(ctx, reg); err != nil {
				return err
			}
			change.Individual = reg
		case domain.KindTeam:
			reg, err := s.Registrations().LockTeam(ctx, registrationID)
			if err != nil {
				return err
			}
			if err := authorizeStatus(ctx, s, actorID, reg.TempleID, scoped); err != nil {
				return err
			}
			change.Previous = reg.Status
			reg.Status = status
			if err := s.Registrations().UpdateTeam(ctx, reg); err != nil {
				return err
			}
			change.Team = reg
		default:
			return domain.NotFound("registration", registrationID)
		}

		return u.audit(ctx, s, actorID, domain.ActionUpdateStatus, kind.Table(), registrationID,
			map[string]any{"status": change.Previous},
			map[string]any{"status": status})
	})
	if err != nil {
		return nil, rejected("update_status", err)
	}

	u.logger.Info("registration status updated",
		zap.String("kind", string(kind)),
		zap.Int64("registration_id", registrationID),
		zap.String("from", string(change.Previous)),
		zap.String("to", string(status)),
		zap.Int64("actor_id", actorID),
		zap.Bool("scoped", scoped))

	if change.Individual != nil {
		u.publish(ctx, individualEvent(events.TypeStatusChanged, change.Individual, actorID))
	} else {
		u.publish(ctx, teamEvent(events.TypeStatusChanged, change.Team, actorID))
	}
	return change, nil
}

// authorizeStatus fails with the same generic error whichever check fails.
func authorizeStatus(ctx context.Context, s repository.Store, actorID, ownerTempleID int64, scoped bool) error {
	actor, err := s.Profiles().GetByID(ctx, actorID)
	if err != nil {
		return domain.ErrUnauthorized
	}
	if !scoped {
		if actor.Role == domain.RoleSuperUser {
			return nil
		}
		return domain.ErrUnauthorized
	}
	if actor.Role == domain.RoleTempleAdmin && actor.TempleID == ownerTempleID {
		return nil
	}
	return domain.ErrUnauthorized
}
