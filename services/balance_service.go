package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tripsplit-backend/metrics"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BalanceService loads a trip snapshot and runs the balance engine over it.
// It holds no computed state; every call starts from the database.
type BalanceService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBalanceService(db *gorm.DB) *BalanceService {
	return &BalanceService{db: db, now: time.Now}
}

// LoadTripLedger reads the trip and all of its non-deleted spends with their
// assignments in one preloaded batch.
func LoadTripLedger(ctx context.Context, db *gorm.DB, tripID uuid.UUID) (TripLedger, error) {
	var trip models.Trip
	if err := db.WithContext(ctx).First(&trip, "id = ?", tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TripLedger{}, utils.NewNotFound("trip", tripID.String())
		}
		return TripLedger{}, fmt.Errorf("failed to load trip: %w", err)
	}

	var spends []models.Spend
	err := db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Preload("Assignments").
		Order("date ASC, id ASC").
		Find(&spends).Error
	if err != nil {
		return TripLedger{}, fmt.Errorf("failed to load spends: %w", err)
	}

	ledger := TripLedger{
		TripID:       trip.ID.String(),
		BaseCurrency: trip.BaseCurrency,
		Spends:       make([]LedgerSpend, 0, len(spends)),
	}
	for _, s := range spends {
		ls := LedgerSpend{
			ID:               s.ID.String(),
			PayerID:          idString(s.PayerID),
			Description:      s.Description,
			Currency:         s.Currency,
			Amount:           s.Amount,
			FxRate:           s.FxRate,
			NormalizedAmount: s.NormalizedAmount,
			Date:             s.Date,
			Status:           s.Status,
			Assignments:      make([]LedgerAssignment, 0, len(s.Assignments)),
		}
		for _, a := range s.Assignments {
			ls.Assignments = append(ls.Assignments, LedgerAssignment{
				SpendID:               s.ID.String(),
				UserID:                idString(a.UserID),
				ShareAmount:           a.ShareAmount,
				NormalizedShareAmount: a.NormalizedShareAmount,
			})
		}
		ledger.Spends = append(ledger.Spends, ls)
	}

	return ledger, nil
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

// CalculateTripBalances returns net balances and the minimal settlement plan
// for a trip. Callers check membership first.
func (s *BalanceService) CalculateTripBalances(ctx context.Context, tripID uuid.UUID) (*models.BalanceSummary, error) {
	start := time.Now()
	defer func() { metrics.BalanceDuration.Observe(time.Since(start).Seconds()) }()

	ledger, err := LoadTripLedger(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}

	summary, warnings := CalculateBalances(ledger, s.now())
	reportWarnings(tripID, warnings)
	metrics.SettlementsPerCalculation.Observe(float64(len(summary.Settlements)))

	return &summary, nil
}

// TripDebtLedger returns the non-netted view of who owes whom for which spend.
func (s *BalanceService) TripDebtLedger(ctx context.Context, tripID uuid.UUID) (*models.DebtLedger, error) {
	ledger, err := LoadTripLedger(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}

	view, warnings := BuildDebtLedger(ledger, s.now())
	reportWarnings(tripID, warnings)

	return &view, nil
}

func reportWarnings(tripID uuid.UUID, warnings []DataIntegrityWarning) {
	for _, w := range warnings {
		metrics.SkippedRecords.WithLabelValues(w.Reason).Inc()
		utils.Logger.WithFields(logrus.Fields{
			"trip_id":  tripID.String(),
			"spend_id": w.SpendID,
			"user_id":  w.UserID,
		}).Warnf("Skipping malformed record: %s", w.Reason)
	}
}

// UserTripBalances lists the user's net balance in every trip they belong to.
// Trips where the user is settled up are included with a zero balance.
func (s *BalanceService) UserTripBalances(ctx context.Context, userID uuid.UUID) ([]models.TripBalance, error) {
	trips, err := ListTrips(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.TripBalance, 0, len(trips))
	for _, trip := range trips {
		ledger, err := LoadTripLedger(ctx, s.db, trip.ID)
		if err != nil {
			return nil, err
		}
		summary, warnings := CalculateBalances(ledger, s.now())
		reportWarnings(trip.ID, warnings)

		tb := models.TripBalance{
			TripID:       trip.ID.String(),
			TripName:     trip.Name,
			BaseCurrency: trip.BaseCurrency,
			NetBalance:   decimal.Zero,
		}
		for _, b := range summary.Balances {
			if b.UserID == userID.String() {
				tb.NetBalance = b.NetBalance
				break
			}
		}
		out = append(out, tb)
	}
	return out, nil
}
