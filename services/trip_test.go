package services

import (
	"testing"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTrip(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "USD", f.trip.BaseCurrency)
	require.Len(t, f.trip.Members, 1)
	assert.Equal(t, models.RoleOwner, f.trip.Members[0].Role)
	assert.Equal(t, models.RSVPGoing, f.trip.Members[0].RSVP)

	_, err := CreateTrip(f.ctx, f.db, f.owner.ID, models.CreateTripRequest{
		Name: "Backwards", StartDate: "2026-05-10", EndDate: "2026-05-01",
	})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = CreateTrip(f.ctx, f.db, f.owner.ID, models.CreateTripRequest{Name: "Bad date", StartDate: "10/05/2026"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	trips, err := ListTrips(f.ctx, f.db, f.friend.ID)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Len(t, trips[0].Members, 2)
}

func TestUpdateTrip(t *testing.T) {
	f := newFixture(t)

	_, err := UpdateTrip(f.ctx, f.db, f.trip.ID, f.friend.ID, models.UpdateTripRequest{Name: "Mine now"})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	updated, err := UpdateTrip(f.ctx, f.db, f.trip.ID, f.owner.ID, models.UpdateTripRequest{Name: "Lisbon & Sintra", BaseCurrency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon & Sintra", updated.Name)
	assert.Equal(t, "EUR", updated.BaseCurrency)

	_, err = newSpendService(f).Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
		Description: "Bifanas", Amount: d("8.50"), SplitType: models.SplitEqual,
	})
	require.NoError(t, err)

	_, err = UpdateTrip(f.ctx, f.db, f.trip.ID, f.owner.ID, models.UpdateTripRequest{BaseCurrency: "USD"})
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestDeleteTrip(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, DeleteTrip(f.ctx, f.db, f.trip.ID, f.friend.ID), utils.ErrForbidden)
	require.NoError(t, DeleteTrip(f.ctx, f.db, f.trip.ID, f.owner.ID))

	_, err := GetTrip(f.ctx, f.db, f.trip.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = RequireMember(f.ctx, f.db, f.trip.ID, f.owner.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestMembership(t *testing.T) {
	f := newFixture(t)

	t.Run("only managers add members", func(t *testing.T) {
		_, err := AddMemberByEmail(f.ctx, f.db, f.trip.ID, f.friend.ID, f.outsider.Email)
		assert.ErrorIs(t, err, utils.ErrForbidden)

		_, err = AddMemberByEmail(f.ctx, f.db, f.trip.ID, f.owner.ID, "nobody@example.com")
		assert.ErrorIs(t, err, utils.ErrNotFound)

		_, err = AddMemberByEmail(f.ctx, f.db, f.trip.ID, f.owner.ID, f.friend.Email)
		assert.ErrorIs(t, err, utils.ErrConflict)
	})

	t.Run("owner promotes an admin who can then add members", func(t *testing.T) {
		_, err := UpdateMemberRole(f.ctx, f.db, f.trip.ID, f.friend.ID, f.friend.ID, models.RoleAdmin)
		assert.ErrorIs(t, err, utils.ErrForbidden)

		member, err := UpdateMemberRole(f.ctx, f.db, f.trip.ID, f.owner.ID, f.friend.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, member.Role)

		_, err = UpdateMemberRole(f.ctx, f.db, f.trip.ID, f.owner.ID, f.owner.ID, models.RoleMember)
		assert.ErrorIs(t, err, utils.ErrConflict)

		added, err := AddMemberByEmail(f.ctx, f.db, f.trip.ID, f.friend.ID, f.outsider.Email)
		require.NoError(t, err)
		assert.Equal(t, models.RSVPPending, added.RSVP)
	})

	t.Run("owner cannot leave", func(t *testing.T) {
		err := RemoveMember(f.ctx, f.db, f.trip.ID, f.friend.ID, f.owner.ID)
		assert.ErrorIs(t, err, utils.ErrConflict)
		err = RemoveMember(f.ctx, f.db, f.trip.ID, f.owner.ID, f.owner.ID)
		assert.ErrorIs(t, err, utils.ErrConflict)
	})

	t.Run("members leave on their own", func(t *testing.T) {
		require.NoError(t, RemoveMember(f.ctx, f.db, f.trip.ID, f.outsider.ID, f.outsider.ID))
		_, err := RequireMember(f.ctx, f.db, f.trip.ID, f.outsider.ID)
		assert.ErrorIs(t, err, utils.ErrForbidden)
	})

	t.Run("rsvp drives the default split", func(t *testing.T) {
		ids, err := ActiveMemberIDs(f.ctx, f.db, f.trip.ID)
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		_, err = SetRSVP(f.ctx, f.db, f.trip.ID, f.friend.ID, models.RSVPNotGoing)
		require.NoError(t, err)

		ids, err = ActiveMemberIDs(f.ctx, f.db, f.trip.ID)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, f.owner.ID, ids[0])
	})
}
