package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"events-service/internal/domain"
	"events-service/internal/events"
)

func TestUpdateRegistrationStatus_Scoped(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	a := f.participant(t, templeNorth)
	reg := f.register(t, a.ID, 1)

	ownAdmin := f.profile(t, templeNorth, domain.RoleTempleAdmin)
	otherAdmin := f.profile(t, templeSouth, domain.RoleTempleAdmin)
	root := f.profile(t, templeSouth, domain.RoleSuperUser)

	_, err := f.uc.UpdateRegistrationStatus(ctx, domain.KindIndividual, reg.ID, domain.StatusDeclined, otherAdmin.ID, true)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// scoped path is for temple admins only
	_, err = f.uc.UpdateRegistrationStatus(ctx, domain.KindIndividual, reg.ID, domain.StatusDeclined, root.ID, true)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	change, err := f.uc.UpdateRegistrationStatus(ctx, domain.KindIndividual, reg.ID, domain.StatusDeclined, ownAdmin.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, change.Previous)
	require.Equal(t, domain.StatusDeclined, change.Individual.Status)
	require.Nil(t, change.Team)

	logs := f.auditFor(t, domain.TableIndividualRegistrations, reg.ID)
	require.Len(t, logs, 2)
	require.Equal(t, domain.ActionUpdateStatus, logs[0].ActionName)
	require.JSONEq(t, `{"status":"ACCEPTED"}`, string(logs[0].OldValue))
	require.JSONEq(t, `{"status":"DECLINED"}`, string(logs[0].NewValue))
	require.Equal(t, ownAdmin.ID, logs[0].ActorID)
}

func TestUpdateRegistrationStatus_Unscoped(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	admin := f.profile(t, templeNorth, domain.RoleTempleAdmin)
	root := f.profile(t, templeSouth, domain.RoleSuperUser)
	m := f.participant(t, templeNorth)

	team, err := f.uc.RegisterTeam(ctx, admin.ID, templeNorth, relayEvent, []int64{m.ID})
	require.NoError(t, err)

	_, err = f.uc.UpdateRegistrationStatus(ctx, domain.KindTeam, team.ID, domain.StatusPending, admin.ID, false)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	change, err := f.uc.UpdateRegistrationStatus(ctx, domain.KindTeam, team.ID, domain.StatusPending, root.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, change.Previous)
	require.Equal(t, domain.StatusPending, change.Team.Status)

	// any status may move to any other, including back
	change, err = f.uc.UpdateRegistrationStatus(ctx, domain.KindTeam, team.ID, domain.StatusAccepted, root.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, change.Previous)

	require.Contains(t, f.published.types(), events.TypeStatusChanged)
}

func TestUpdateRegistrationStatus_Errors(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	root := f.profile(t, templeSouth, domain.RoleSuperUser)
	reg := f.register(t, f.participant(t, templeNorth).ID, 1)

	_, err := f.uc.UpdateRegistrationStatus(ctx, domain.KindIndividual, reg.ID, domain.RegistrationStatus("APPROVED"), root.ID, false)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.uc.UpdateRegistrationStatus(ctx, domain.KindIndividual, 9999, domain.StatusDeclined, root.ID, false)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.UpdateRegistrationStatus(ctx, domain.KindTeam, reg.ID, domain.StatusDeclined, root.ID, false)
	require.ErrorIs(t, err, domain.ErrNotFound)

	logs := f.auditFor(t, domain.TableIndividualRegistrations, reg.ID)
	require.Len(t, logs, 1, "rejected updates are not audited")
}

func TestUpdateRegistrationStatus_PendingPromotionIgnoresCapacity(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	root := f.profile(t, templeSouth, domain.RoleSuperUser)

	for i := 0; i < 3; i++ {
		f.register(t, f.participant(t, templeNorth).ID, 1)
	}
	pending := f.register(t, f.participant(t, templeNorth).ID, 1)
	require.Equal(t, domain.StatusPending, pending.Status)

	change, err := f.uc.UpdateRegistrationStatus(ctx, domain.KindIndividual, pending.ID, domain.StatusAccepted, root.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, change.Individual.Status)

	count, err := f.db.Registrations().CountActiveByTempleEvent(ctx, templeNorth, 1)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}
