package usecase

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/events"
	"events-service/internal/repository"
)

// RegisterIndividual admits userID into eventID. actorID is the caller; when
// it differs from userID the caller must be a super-user or an admin of the
// user's temple.
//
// Locks are taken profile first, then event, so concurrent admissions for
// the same user or the same (temple, event) serialize.
func (u *RegistrationUsecase) RegisterIndividual(ctx context.Context, actorID, userID, eventID int64) (*domain.IndividualRegistration, error) {
	var reg *domain.IndividualRegistration

	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		user, err := s.Profiles().LockByID(ctx, userID)
		if err != nil {
			return err
		}
		if actorID != userID {
			if err := u.authorizeOnBehalf(ctx, s, actorID, user); err != nil {
				return err
			}
		}

		active, err := s.Registrations().CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if active >= u.limits.MaxActivePerUser {
			return domain.ErrRegistrationLimitExceeded.With("profile", userID)
		}

		event, err := s.Events().LockByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := checkEventOpen(event, domain.EventKindIndividual); err != nil {
			return err
		}

		exists, err := s.Registrations().IndividualExists(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRegistration
		}

		status, err := u.decideInitialStatus(ctx, s.Registrations(), user.TempleID, eventID)
		if err != nil {
			return err
		}

		reg = &domain.IndividualRegistration{UserID: userID, EventID: eventID, Status: status}
		if err := s.Registrations().CreateIndividual(ctx, reg); err != nil {
			return err
		}
		return u.audit(ctx, s, actorID, domain.ActionRegisterIndividual, domain.TableIndividualRegistrations, reg.ID, nil, reg)
	})
	if err != nil {
		return nil, rejected("register_individual", err)
	}

	registrationsAdmitted.WithLabelValues(string(domain.KindIndividual), string(reg.Status)).Inc()
	u.logger.Info("individual registration admitted",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("user_id", userID),
		zap.Int64("event_id", eventID),
		zap.String("status", string(reg.Status)))
	u.publish(ctx, individualEvent(events.TypeRegistrationCreated, reg, actorID))
	return reg, nil
}

func (u *RegistrationUsecase) authorizeOnBehalf(ctx context.Context, s repository.Store, actorID int64, user *domain.Profile) error {
	actor, err := s.Profiles().GetByID(ctx, actorID)
	if err != nil {
		return domain.ErrUnauthorized
	}
	switch actor.Role {
	case domain.RoleSuperUser:
		return nil
	case domain.RoleTempleAdmin:
		if actor.TempleID == user.TempleID {
			return nil
		}
	}
	return domain.ErrUnauthorized
}

// RegisterTeam enters templeID's team into eventID. Teams skip the capacity
// policy and are accepted immediately.
func (u *RegistrationUsecase) RegisterTeam(ctx context.Context, actorID, templeID, eventID int64, memberIDs []int64) (*domain.TeamRegistration, error) {
	var reg *domain.TeamRegistration

	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		if err := checkMembers(ctx, s, templeID, memberIDs); err != nil {
			return err
		}

		event, err := s.Events().LockByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := checkEventOpen(event, domain.EventKindTeam); err != nil {
			return err
		}

		exists, err := s.Registrations().TeamExists(ctx, templeID, eventID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateTeamRegistration
		}

		reg = &domain.TeamRegistration{
			TempleID:  templeID,
			EventID:   eventID,
			MemberIDs: slices.Clone(memberIDs),
			Status:    domain.StatusAccepted,
		}
		if err := s.Registrations().CreateTeam(ctx, reg); err != nil {
			return err
		}
		return u.audit(ctx, s, actorID, domain.ActionRegisterTeam, domain.TableTeamRegistrations, reg.ID, nil, reg)
	})
	if err != nil {
		return nil, rejected("register_team", err)
	}

	registrationsAdmitted.WithLabelValues(string(domain.KindTeam), string(reg.Status)).Inc()
	u.logger.Info("team registration admitted",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("temple_id", templeID),
		zap.Int64("event_id", eventID),
		zap.Int("members", len(memberIDs)))
	u.publish(ctx, teamEvent(events.TypeRegistrationCreated, reg, actorID))
	return reg, nil
}

// UpdateTeamRoster replaces the whole member list of a team registration.
// Only a temple admin of the registration's own temple may do this.
func (u *RegistrationUsecase) UpdateTeamRoster(ctx context.Context, registrationID int64, memberIDs []int64, actorID int64) (*domain.TeamRegistration, error) {
	var reg *domain.TeamRegistration

	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		var err error
		reg, err = s.Registrations().LockTeam(ctx, registrationID)
		if err != nil {
			return err
		}

		actor, err := s.Profiles().GetByID(ctx, actorID)
		if err != nil || actor.Role != domain.RoleTempleAdmin || actor.TempleID != reg.TempleID {
			return domain.ErrUnauthorizedCrossTempleEdit
		}

		if err := checkMembers(ctx, s, reg.TempleID, memberIDs); err != nil {
			return err
		}

		before := map[string]any{"member_ids": slices.Clone(reg.MemberIDs)}
		reg.MemberIDs = slices.Clone(memberIDs)
		if err := s.Registrations().UpdateTeam(ctx, reg); err != nil {
			return err
		}
		after := map[string]any{"member_ids": reg.MemberIDs}
		return u.audit(ctx, s, actorID, domain.ActionUpdateTeamRoster, domain.TableTeamRegistrations, reg.ID, before, after)
	})
	if err != nil {
		return nil, rejected("update_team_roster", err)
	}

	u.logger.Info("team roster replaced",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("actor_id", actorID),
		zap.Int("members", len(reg.MemberIDs)))
	u.publish(ctx, teamEvent(events.TypeRosterUpdated, reg, actorID))
	return reg, nil
}

// checkEventOpen rejects closed events and events whose type takes the other
// kind of registration.
func checkEventOpen(event *domain.Event, kind domain.EventKind) error {
	if event.Closed {
		return domain.ErrEventClosed.With("event", event.ID)
	}
	if event.EventType == nil || event.EventType.Kind != kind {
		return domain.ErrEventKindMismatch.With("event", event.ID)
	}
	return nil
}

// checkMembers reports every missing id, then every id from another temple.
func checkMembers(ctx context.Context, s repository.Store, templeID int64, memberIDs []int64) error {
	if err := validateRoster(memberIDs); err != nil {
		return err
	}
	found, err := s.Profiles().GetByIDs(ctx, memberIDs)
	if err != nil {
		return err
	}

	var missing, foreign []int64
	for _, id := range memberIDs {
		p, ok := found[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case p.TempleID != templeID:
			foreign = append(foreign, id)
		}
	}
	if len(missing) > 0 {
		return domain.ErrMemberNotFound.With("profile", missing...)
	}
	if len(foreign) > 0 {
		return domain.ErrCrossTempleMembership.With("profile", foreign...)
	}
	return nil
}

func validateRoster(memberIDs []int64) error {
	v := &domain.ValidationError{}
	if len(memberIDs) == 0 {
		v.Add("member_ids", "at least one member is required")
	}
	seen := make(map[int64]bool, len(memberIDs))
	for _, id := range memberIDs {
		if seen[id] {
			v.Add("member_ids", "duplicate member id")
			break
		}
		seen[id] = true
	}
	return v.Err()
}
