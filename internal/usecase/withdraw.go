package usecase

import (
	"context"

	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/events"
	"events-service/internal/repository"
)

// WithdrawIndividual soft-deletes the caller's own registration. The slot no
// longer counts toward either limit. A registration with a recorded result
// stays put until the result is cleared.
func (u *RegistrationUsecase) WithdrawIndividual(ctx context.Context, registrationID, actorID int64) (*domain.IndividualRegistration, error) {
	var reg *domain.IndividualRegistration

	err := u.db.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		var err error
		reg, err = s.Registrations().LockIndividual(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.UserID != actorID {
			return domain.ErrUnauthorized
		}
		if reg.EventResultID != nil {
			return domain.ErrResultRecorded.With("individual_registration", reg.ID)
		}

		reg.IsDeleted = true
		if err := s.Registrations().UpdateIndividual(ctx, reg); err != nil {
			return err
		}
		return u.audit(ctx, s, actorID, domain.ActionWithdraw, domain.TableIndividualRegistrations, reg.ID,
			map[string]any{"is_deleted": false, "status": reg.Status},
			map[string]any{"is_deleted": true, "status": reg.Status})
	})
	if err != nil {
		return nil, rejected("withdraw", err)
	}

	u.logger.Info("registration withdrawn",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("user_id", actorID))
	u.publish(ctx, individualEvent(events.TypeWithdrawn, reg, actorID))
	return reg, nil
}
