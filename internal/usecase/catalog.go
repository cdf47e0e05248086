package usecase

import (
	"context"

	"events-service/internal/domain"
)

func (u *RegistrationUsecase) ListEvents(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	return u.db.Events().List(ctx, f)
}

func (u *RegistrationUsecase) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return u.db.Events().GetByID(ctx, id)
}

// ListEligibleEvents returns open events matching the profile's gender and
// current age.
func (u *RegistrationUsecase) ListEligibleEvents(ctx context.Context, profileID int64) ([]*domain.Event, error) {
	profile, err := u.db.Profiles().GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	all, err := u.db.Events().List(ctx, domain.EventFilter{})
	if err != nil {
		return nil, err
	}

	now := u.now()
	eligible := make([]*domain.Event, 0, len(all))
	for _, e := range all {
		if e.OpenTo(profile, now) {
			eligible = append(eligible, e)
		}
	}
	return eligible, nil
}

// ListEventResults returns the rank to points table of an event type.
func (u *RegistrationUsecase) ListEventResults(ctx context.Context, eventTypeID int64) ([]*domain.EventResult, error) {
	return u.resultsFor(u.db).ListByEventType(ctx, eventTypeID)
}
