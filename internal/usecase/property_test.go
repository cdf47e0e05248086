package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"events-service/internal/domain"
)

// A user never holds more than MaxActivePerUser active registrations, however
// registrations and withdrawals interleave.
func TestProperty_UserCapHolds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := setupFixture(rt)
		ctx := context.Background()
		user := f.participant(rt, templeNorth)
		var held []int64

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(held) > 0 && rapid.Bool().Draw(rt, "withdraw") {
				idx := rapid.IntRange(0, len(held)-1).Draw(rt, "idx")
				_, err := f.uc.WithdrawIndividual(ctx, held[idx], user.ID)
				require.NoError(rt, err)
				held = append(held[:idx], held[idx+1:]...)
				continue
			}

			eventID := rapid.Int64Range(1, 6).Draw(rt, "event")
			reg, err := f.uc.RegisterIndividual(ctx, user.ID, user.ID, eventID)
			switch {
			case err == nil:
				held = append(held, reg.ID)
			case len(held) >= 3:
				require.ErrorIs(rt, err, domain.ErrRegistrationLimitExceeded)
			default:
				require.ErrorIs(rt, err, domain.ErrDuplicateRegistration)
			}

			active, err := f.db.Registrations().CountActiveByUser(ctx, user.ID)
			require.NoError(rt, err)
			require.LessOrEqual(rt, active, 3)
			require.Equal(rt, len(held), active)
		}
	})
}

// Each new individual registration is ACCEPTED exactly when its temple had
// fewer than AutoAcceptPerTempleEvent active entries in the event.
func TestProperty_TempleAutoAccept(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := setupFixture(rt)
		ctx := context.Background()
		active := map[int64]int{}

		n := rapid.IntRange(1, 12).Draw(rt, "registrants")
		for i := 0; i < n; i++ {
			temple := rapid.SampledFrom([]int64{templeNorth, templeSouth}).Draw(rt, "temple")
			user := f.participant(rt, temple)

			reg, err := f.uc.RegisterIndividual(ctx, user.ID, user.ID, 1)
			require.NoError(rt, err)
			require.Equal(rt, InitialStatus(active[temple], 3), reg.Status)
			active[temple]++
		}
	})
}

// A team registration persists only when every member belongs to its temple.
func TestProperty_TeamsAreSingleTemple(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := setupFixture(rt)
		ctx := context.Background()
		admin := f.profile(rt, templeNorth, domain.RoleTempleAdmin)

		size := rapid.IntRange(1, 6).Draw(rt, "size")
		members := make([]int64, size)
		clean := true
		for i := range members {
			temple := rapid.SampledFrom([]int64{templeNorth, templeSouth}).Draw(rt, "member_temple")
			members[i] = f.participant(rt, temple).ID
			clean = clean && temple == templeNorth
		}

		_, err := f.uc.RegisterTeam(ctx, admin.ID, templeNorth, relayEvent, members)
		if !clean {
			require.ErrorIs(rt, err, domain.ErrCrossTempleMembership)
			return
		}
		require.NoError(rt, err)

		teams, err := f.db.Registrations().ListTeamByTemple(ctx, templeNorth, domain.RegistrationFilter{})
		require.NoError(rt, err)
		require.Len(rt, teams, 1)
		for _, id := range teams[0].MemberIDs {
			p, err := f.db.Profiles().GetByID(ctx, id)
			require.NoError(rt, err)
			require.Equal(rt, templeNorth, p.TempleID)
		}
	})
}
