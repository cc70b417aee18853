package services

import (
	"testing"
	"time"
	"tripsplit-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderJob_Run(t *testing.T) {
	f := newFixture(t)
	seedSpends(t, f)
	now := func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	t.Run("sends one reminder per stale settlement", func(t *testing.T) {
		notifier := &recordingNotifier{}
		job := &ReminderJob{DB: f.db, Notifier: notifier, MinAge: 7 * 24 * time.Hour, Now: now}

		sent, err := job.Run(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		require.Len(t, notifier.reminders, 1)
		r := notifier.reminders[0]
		assert.Equal(t, f.friend.ID, r.debtor)
		assert.Equal(t, f.owner.ID, r.creditor)
		assert.True(t, r.amount.Equal(d("25")))
		assert.Equal(t, day(1), r.since.UTC())
	})

	t.Run("recent debts are left alone", func(t *testing.T) {
		notifier := &recordingNotifier{}
		job := &ReminderJob{DB: f.db, Notifier: notifier, MinAge: 60 * 24 * time.Hour, Now: now}

		sent, err := job.Run(f.ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, notifier.reminders)
	})

	t.Run("delivery failures are not fatal", func(t *testing.T) {
		notifier := &recordingNotifier{failFor: f.friend.Email}
		job := &ReminderJob{DB: f.db, Notifier: notifier, MinAge: 7 * 24 * time.Hour, Now: now}

		sent, err := job.Run(f.ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
	})
}

func TestStartCronJobs_RejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	job := &ReminderJob{DB: f.db, Notifier: &recordingNotifier{}}

	_, err := StartCronJobs(job, "every tuesday")
	assert.Error(t, err)

	c, err := StartCronJobs(job, "0 9 * * *")
	require.NoError(t, err)
	c.Stop()
}

func TestTripsWithSpends_SkipsDeletedTrips(t *testing.T) {
	f := newFixture(t)
	seedSpends(t, f)

	_, err := CreateTrip(f.ctx, f.db, f.owner.ID, models.CreateTripRequest{Name: "Sintra", BaseCurrency: "USD"})
	require.NoError(t, err)

	gone, err := CreateTrip(f.ctx, f.db, f.owner.ID, models.CreateTripRequest{Name: "Evora", BaseCurrency: "USD"})
	require.NoError(t, err)
	_, err = newSpendService(f).Create(f.ctx, gone.ID, f.owner.ID, models.CreateSpendRequest{
		Description: "Wine", Amount: d("30"), SplitType: models.SplitEqual, Date: "2026-01-05",
	})
	require.NoError(t, err)
	require.NoError(t, DeleteTrip(f.ctx, f.db, gone.ID, f.owner.ID))

	ids, err := tripsWithSpends(f.ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.trip.ID}, ids)

	sent, err := (&ReminderJob{DB: f.db, Notifier: &recordingNotifier{}, MinAge: time.Hour, Now: func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	}}).Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}
