package services

import (
	"context"
	"fmt"
	"sync"
	"time"
	"tripsplit-backend/metrics"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReminderJob emails debtors whose oldest unsettled debt is older than MinAge.
type ReminderJob struct {
	DB       *gorm.DB
	Notifier Notifier
	MinAge   time.Duration
	Now      func() time.Time
}

type reminder struct {
	trip     models.Trip
	debtor   models.User
	creditor models.User
	s        models.SettlementSuggestion
}

// Run computes balances for every trip with spends and sends the due
// reminders. It returns how many were sent.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	cutoff := now().Add(-j.MinAge)

	tripIDs, err := tripsWithSpends(ctx, j.DB)
	if err != nil {
		return 0, err
	}

	var due []reminder
	for _, tripID := range tripIDs {
		batch, err := j.dueForTrip(ctx, tripID, cutoff, now())
		if err != nil {
			utils.Logger.WithError(err).WithField("trip_id", tripID.String()).Error("Reminder scan failed")
			continue
		}
		due = append(due, batch...)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)
	errChan := make(chan error, len(due))
	for _, r := range due {
		wg.Add(1)
		go func(r reminder) {
			defer wg.Done()
			if err := j.Notifier.NotifyDebtReminder(r.debtor, r.creditor, r.trip, r.s.Amount, *r.s.OldestDebtDate); err != nil {
				errChan <- fmt.Errorf("reminder to %s failed: %w", r.debtor.Email, err)
				return
			}
			metrics.RemindersSent.Inc()
			mu.Lock()
			sent++
			mu.Unlock()
		}(r)
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		utils.Logger.WithError(err).Warn("Debt reminder not delivered")
	}
	utils.Logger.WithFields(logrus.Fields{"trips": len(tripIDs), "sent": sent}).Info("Debt reminders finished")
	return sent, nil
}

// tripsWithSpends lists live trips that have at least one live spend.
func tripsWithSpends(ctx context.Context, db *gorm.DB) ([]uuid.UUID, error) {
	var tripIDs []uuid.UUID
	err := db.WithContext(ctx).Model(&models.Trip{}).
		Where("EXISTS (SELECT 1 FROM spends WHERE spends.trip_id = trips.id AND spends.deleted_at IS NULL)").
		Order("id").
		Pluck("id", &tripIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trips with spends: %w", err)
	}
	return tripIDs, nil
}

func (j *ReminderJob) dueForTrip(ctx context.Context, tripID uuid.UUID, cutoff, calculatedAt time.Time) ([]reminder, error) {
	ledger, err := LoadTripLedger(ctx, j.DB, tripID)
	if err != nil {
		return nil, err
	}
	summary, warnings := CalculateBalances(ledger, calculatedAt)
	reportWarnings(tripID, warnings)

	var userIDs []uuid.UUID
	var stale []models.SettlementSuggestion
	for _, s := range summary.Settlements {
		if s.OldestDebtDate == nil || s.OldestDebtDate.After(cutoff) {
			continue
		}
		stale = append(stale, s)
		userIDs = append(userIDs, uuid.MustParse(s.FromUserID), uuid.MustParse(s.ToUserID))
	}
	if len(stale) == 0 {
		return nil, nil
	}

	var trip models.Trip
	if err := j.DB.WithContext(ctx).First(&trip, "id = ?", tripID).Error; err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	users, err := UsersByID(ctx, j.DB, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]reminder, 0, len(stale))
	for _, s := range stale {
		debtor, ok := users[uuid.MustParse(s.FromUserID)]
		if !ok || debtor.Email == "" {
			continue
		}
		out = append(out, reminder{trip: trip, debtor: debtor, creditor: users[uuid.MustParse(s.ToUserID)], s: s})
	}
	return out, nil
}

// ExpireInvitations marks pending invitations past their expiry as EXPIRED.
func ExpireInvitations(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, now).
		Update("status", models.InvitationExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartCronJobs schedules debt reminders on reminderSpec and invitation
// expiry every six hours.
func StartCronJobs(job *ReminderJob, reminderSpec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(reminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			utils.Logger.WithError(err).Error("Cron job failed to send debt reminders")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", reminderSpec, err)
	}

	_, err = c.AddFunc("0 */6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := ExpireInvitations(ctx, job.DB, time.Now().UTC())
		if err != nil {
			utils.Logger.WithError(err).Error("Cron job failed to expire invitations")
			return
		}
		if n > 0 {
			utils.Logger.Infof("Expired %d invitations", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule invitation expiry: %w", err)
	}

	c.Start()
	utils.Logger.WithField("schedule", reminderSpec).Info("Cron jobs started")
	return c, nil
}
