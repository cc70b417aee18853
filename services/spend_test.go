package services

import (
	"testing"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpendService(f *fixture) *SpendService {
	return NewSpendService(f.db, NewFxRateStore(f.db, nil), nil)
}

func TestSpendService_Create(t *testing.T) {
	f := newFixture(t)
	svc := newSpendService(f)

	t.Run("equal split defaults to members who are coming", func(t *testing.T) {
		spend, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
			Description: "Dinner",
			Amount:      d("100.01"),
			SplitType:   models.SplitEqual,
			Date:        "2026-02-03",
		})
		require.NoError(t, err)

		assert.Equal(t, f.owner.ID, spend.PayerID)
		assert.Equal(t, "USD", spend.Currency)
		assert.True(t, spend.FxRate.Equal(decimal.NewFromInt(1)))
		assert.True(t, spend.NormalizedAmount.Equal(d("100.01")))
		require.Len(t, spend.Assignments, 2)

		total := decimal.Zero
		for _, a := range spend.Assignments {
			total = total.Add(a.ShareAmount)
		}
		assert.True(t, total.Equal(d("100.01")))
	})

	t.Run("declined members are left out of the default split", func(t *testing.T) {
		_, err := SetRSVP(f.ctx, f.db, f.trip.ID, f.friend.ID, models.RSVPNotGoing)
		require.NoError(t, err)
		t.Cleanup(func() { SetRSVP(f.ctx, f.db, f.trip.ID, f.friend.ID, models.RSVPGoing) })

		spend, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
			Description: "Taxi",
			Amount:      d("20"),
			SplitType:   models.SplitEqual,
		})
		require.NoError(t, err)
		require.Len(t, spend.Assignments, 1)
		assert.Equal(t, f.owner.ID, spend.Assignments[0].UserID)
	})

	t.Run("foreign currency needs a rate the first time", func(t *testing.T) {
		_, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
			Description: "Pastéis",
			Amount:      d("12.00"),
			Currency:    "EUR",
			SplitType:   models.SplitEqual,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("last rate is reused for the same currency", func(t *testing.T) {
		rate := d("1.10")
		first, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
			Description: "Tram tickets",
			Amount:      d("10.00"),
			Currency:    "EUR",
			FxRate:      &rate,
			SplitType:   models.SplitEqual,
		})
		require.NoError(t, err)
		assert.True(t, first.NormalizedAmount.Equal(d("11.00")))

		second, err := svc.Create(f.ctx, f.trip.ID, f.friend.ID, models.CreateSpendRequest{
			Description: "Museum",
			Amount:      d("20.00"),
			Currency:    "eur",
			SplitType:   models.SplitEqual,
		})
		require.NoError(t, err)
		assert.True(t, second.FxRate.Equal(d("1.1")))
		assert.True(t, second.NormalizedAmount.Equal(d("22.00")))
	})

	t.Run("payer must belong to the trip", func(t *testing.T) {
		_, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
			Description: "Gift",
			Amount:      d("10"),
			PayerID:     f.outsider.ID.String(),
			SplitType:   models.SplitEqual,
		})
		assert.ErrorIs(t, err, utils.ErrValidation)
	})

	t.Run("outsiders cannot add spends", func(t *testing.T) {
		_, err := svc.Create(f.ctx, f.trip.ID, f.outsider.ID, models.CreateSpendRequest{
			Description: "Sneaky",
			Amount:      d("10"),
			SplitType:   models.SplitEqual,
		})
		assert.ErrorIs(t, err, utils.ErrForbidden)
	})

	t.Run("exact split must match the amount", func(t *testing.T) {
		_, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
			Description: "Groceries",
			Amount:      d("30"),
			SplitType:   models.SplitExact,
			Splits: []models.SplitInput{
				{UserID: f.owner.ID.String(), Value: d("10")},
				{UserID: f.friend.ID.String(), Value: d("10")},
			},
		})
		assert.ErrorIs(t, err, utils.ErrValidation)
	})
}

func TestSpendService_UpdateAndStatus(t *testing.T) {
	f := newFixture(t)
	svc := newSpendService(f)

	spend, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
		Description: "Hotel",
		Amount:      d("300"),
		SplitType:   models.SplitPercent,
		Splits: []models.SplitInput{
			{UserID: f.owner.ID.String(), Value: d("50")},
			{UserID: f.friend.ID.String(), Value: d("50")},
		},
	})
	require.NoError(t, err)

	amount := d("400")
	updated, err := svc.Update(f.ctx, spend.ID, f.owner.ID, models.UpdateSpendRequest{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(d("400")))
	require.Len(t, updated.Assignments, 2)
	for _, a := range updated.Assignments {
		assert.True(t, a.ShareAmount.Equal(d("200")), "share %s", a.ShareAmount)
	}

	closed, err := svc.SetStatus(f.ctx, spend.ID, f.owner.ID, models.SpendClosed)
	require.NoError(t, err)
	assert.Equal(t, models.SpendClosed, closed.Status)

	_, err = svc.Update(f.ctx, spend.ID, f.owner.ID, models.UpdateSpendRequest{Description: "Hostel"})
	assert.ErrorIs(t, err, utils.ErrConflict)

	_, err = svc.SetStatus(f.ctx, spend.ID, f.owner.ID, models.SpendClosed)
	assert.ErrorIs(t, err, utils.ErrConflict)

	reopened, err := svc.SetStatus(f.ctx, spend.ID, f.owner.ID, models.SpendOpen)
	require.NoError(t, err)
	assert.Equal(t, models.SpendOpen, reopened.Status)
}

func TestSpendService_OnlyEditorsChangeSpends(t *testing.T) {
	f := newFixture(t)
	svc := newSpendService(f)
	third := createUser(t, f.db, "third")
	_, err := AddMemberByEmail(f.ctx, f.db, f.trip.ID, f.owner.ID, third.Email)
	require.NoError(t, err)

	spend, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
		Description: "Museum", Amount: d("45"), SplitType: models.SplitEqual,
	})
	require.NoError(t, err)

	amount := d("1")
	_, err = svc.Update(f.ctx, spend.ID, third.ID, models.UpdateSpendRequest{PayerID: third.ID.String()})
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = svc.Update(f.ctx, spend.ID, third.ID, models.UpdateSpendRequest{Amount: &amount})
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = svc.SetStatus(f.ctx, spend.ID, third.ID, models.SpendClosed)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(f.ctx, spend.ID, third.ID), utils.ErrForbidden)

	unchanged, err := svc.Get(f.ctx, spend.ID, third.ID)
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, unchanged.PayerID)
	assert.True(t, unchanged.Amount.Equal(d("45")))
	assert.Equal(t, models.SpendOpen, unchanged.Status)

	// Handing the payer role to another member makes them an editor.
	moved, err := svc.Update(f.ctx, spend.ID, f.owner.ID, models.UpdateSpendRequest{PayerID: f.friend.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, f.friend.ID, moved.PayerID)
	_, err = svc.Update(f.ctx, spend.ID, f.friend.ID, models.UpdateSpendRequest{Description: "Museum tickets"})
	assert.NoError(t, err)
}

func TestSpendService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := newSpendService(f)

	lunch, err := svc.Create(f.ctx, f.trip.ID, f.owner.ID, models.CreateSpendRequest{
		Description: "Lunch", Amount: d("40"), SplitType: models.SplitEqual, Date: "2026-02-01",
	})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, f.trip.ID, f.friend.ID, models.CreateSpendRequest{
		Description: "Fuel", Amount: d("60"), SplitType: models.SplitEqual, Date: "2026-02-02",
	})
	require.NoError(t, err)

	tag, err := CreateTag(f.ctx, f.db, f.trip.ID, f.owner.ID, models.CreateTagRequest{Name: "Food"})
	require.NoError(t, err)
	require.NoError(t, AttachTag(f.ctx, f.db, lunch.ID, tag.ID, f.friend.ID))

	page := utils.PaginationQuery{Page: 1, Limit: 20}

	all, err := svc.List(f.ctx, f.trip.ID, f.owner.ID, models.SpendListQuery{}, page)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Fuel", all[0].Description)

	food, err := svc.List(f.ctx, f.trip.ID, f.owner.ID, models.SpendListQuery{Tag: "food"}, page)
	require.NoError(t, err)
	require.Len(t, food, 1)
	assert.Equal(t, lunch.ID, food[0].ID)
	require.Len(t, food[0].Tags, 1)

	err = svc.Delete(f.ctx, lunch.ID, f.outsider.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	require.NoError(t, svc.Delete(f.ctx, lunch.ID, f.owner.ID))
	_, err = svc.Get(f.ctx, lunch.ID, f.owner.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	all, err = svc.List(f.ctx, f.trip.ID, f.owner.ID, models.SpendListQuery{}, page)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
