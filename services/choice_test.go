package services

import (
	"testing"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoices(t *testing.T) {
	f := newFixture(t)
	price := d("18.50")

	detail, err := CreateChoice(f.ctx, f.db, f.trip.ID, f.friend.ID, models.CreateChoiceRequest{
		Name: "Dinner Saturday",
		Options: []models.ChoiceOptionInput{
			{Label: "Seafood", Price: &price},
			{Label: "Tapas"},
			{Label: "Pizza"},
		},
	})
	require.NoError(t, err)
	require.Len(t, detail.Results, 3)
	assert.Equal(t, "Seafood", detail.Results[0].Label)
	assert.NotNil(t, detail.MySelection)
	assert.Empty(t, detail.MySelection)

	choiceID := detail.Choice.ID
	seafood := detail.Results[0].OptionID.String()
	tapas := detail.Results[1].OptionID.String()

	t.Run("single select keeps one pick", func(t *testing.T) {
		_, err := SetSelection(f.ctx, f.db, choiceID, f.owner.ID, []string{seafood, tapas})
		assert.ErrorIs(t, err, utils.ErrValidation)

		_, err = SetSelection(f.ctx, f.db, choiceID, f.owner.ID, []string{uuid.NewString()})
		assert.ErrorIs(t, err, utils.ErrValidation)

		_, err = SetSelection(f.ctx, f.db, choiceID, f.owner.ID, []string{seafood})
		require.NoError(t, err)
		_, err = SetSelection(f.ctx, f.db, choiceID, f.friend.ID, []string{seafood})
		require.NoError(t, err)

		got, err := SetSelection(f.ctx, f.db, choiceID, f.owner.ID, []string{tapas})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Results[0].Votes)
		assert.Equal(t, []uuid.UUID{f.friend.ID}, got.Results[0].Voters)
		assert.Equal(t, 1, got.Results[1].Votes)
		assert.Equal(t, []uuid.UUID{detail.Results[1].OptionID}, got.MySelection)
	})

	t.Run("outsiders cannot vote", func(t *testing.T) {
		_, err := SetSelection(f.ctx, f.db, choiceID, f.outsider.ID, []string{seafood})
		assert.ErrorIs(t, err, utils.ErrForbidden)
	})

	t.Run("closing freezes the votes", func(t *testing.T) {
		closed, err := CloseChoice(f.ctx, f.db, choiceID, f.friend.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ChoiceClosed, closed.Choice.Status)

		_, err = SetSelection(f.ctx, f.db, choiceID, f.owner.ID, nil)
		assert.ErrorIs(t, err, utils.ErrConflict)
		_, err = CloseChoice(f.ctx, f.db, choiceID, f.owner.ID)
		assert.ErrorIs(t, err, utils.ErrConflict)
	})

	choices, err := ListChoices(f.ctx, f.db, f.trip.ID, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, choices, 1)
	assert.Len(t, choices[0].Options, 3)
}

func TestCloseChoice_RequiresCreatorOrManager(t *testing.T) {
	f := newFixture(t)
	detail, err := CreateChoice(f.ctx, f.db, f.trip.ID, f.owner.ID, models.CreateChoiceRequest{
		Name:        "Day trip",
		MultiSelect: true,
		Options:     []models.ChoiceOptionInput{{Label: "Sintra"}, {Label: "Cascais"}},
	})
	require.NoError(t, err)

	both := []string{detail.Results[0].OptionID.String(), detail.Results[1].OptionID.String()}
	got, err := SetSelection(f.ctx, f.db, detail.Choice.ID, f.friend.ID, both)
	require.NoError(t, err)
	assert.Len(t, got.MySelection, 2)

	_, err = CloseChoice(f.ctx, f.db, detail.Choice.ID, f.friend.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	negative := d("-1")
	_, err = CreateChoice(f.ctx, f.db, f.trip.ID, f.owner.ID, models.CreateChoiceRequest{
		Name:    "Refund?",
		Options: []models.ChoiceOptionInput{{Label: "Yes", Price: &negative}},
	})
	assert.ErrorIs(t, err, utils.ErrValidation)
}
