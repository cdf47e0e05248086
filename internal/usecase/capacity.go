package usecase

import (
	"context"

	"events-service/internal/domain"
	"events-service/internal/repository"
)

// InitialStatus is the capacity policy: the first autoAcceptLimit active
// registrations of a temple for an event are accepted, the rest wait for
// review.
func InitialStatus(activeForTempleEvent, autoAcceptLimit int) domain.RegistrationStatus {
	if activeForTempleEvent < autoAcceptLimit {
		return domain.StatusAccepted
	}
	return domain.StatusPending
}

// decideInitialStatus counts at admission time. It must run inside the
// transaction that inserts the registration.
func (u *RegistrationUsecase) decideInitialStatus(ctx context.Context, regs repository.RegistrationRepository, templeID, eventID int64) (domain.RegistrationStatus, error) {
	active, err := regs.CountActiveByTempleEvent(ctx, templeID, eventID)
	if err != nil {
		return "", err
	}
	return InitialStatus(active, u.limits.AutoAcceptPerTempleEvent), nil
}
