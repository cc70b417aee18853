package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpendService owns the write path that feeds the balance engine.
type SpendService struct {
	db       *gorm.DB
	fx       *FxRateStore
	notifier Notifier
	now      func() time.Time
}

func NewSpendService(db *gorm.DB, fx *FxRateStore, notifier Notifier) *SpendService {
	return &SpendService{db: db, fx: fx, notifier: notifier, now: time.Now}
}

func (s *SpendService) loadSpend(ctx context.Context, spendID uuid.UUID) (*models.Spend, error) {
	var spend models.Spend
	err := s.db.WithContext(ctx).
		Preload("Payer").
		Preload("Assignments", func(tx *gorm.DB) *gorm.DB { return tx.Order("user_id ASC") }).
		Preload("Assignments.User").
		Preload("Tags").
		First(&spend, "id = ?", spendID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("spend", spendID.String())
		}
		return nil, fmt.Errorf("failed to load spend: %w", err)
	}
	return &spend, nil
}

// Get returns a spend the caller can see.
func (s *SpendService) Get(ctx context.Context, spendID, userID uuid.UUID) (*models.Spend, error) {
	spend, err := s.loadSpend(ctx, spendID)
	if err != nil {
		return nil, err
	}
	if _, err := RequireMember(ctx, s.db, spend.TripID, userID); err != nil {
		return nil, err
	}
	return spend, nil
}

// List returns a page of a trip's spends, newest first.
func (s *SpendService) List(ctx context.Context, tripID, userID uuid.UUID, query models.SpendListQuery, page utils.PaginationQuery) ([]models.Spend, error) {
	if _, err := RequireMember(ctx, s.db, tripID, userID); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.Spend{}).Where("spends.trip_id = ?", tripID)
	if query.Status != "" {
		tx = tx.Where("spends.status = ?", query.Status)
	}
	if query.Tag != "" {
		tx = tx.Joins("JOIN spend_tags ON spend_tags.spend_id = spends.id").
			Joins("JOIN tags ON tags.id = spend_tags.tag_id")
		if tagID, err := uuid.Parse(query.Tag); err == nil {
			tx = tx.Where("tags.id = ?", tagID)
		} else {
			tx = tx.Where("LOWER(tags.name) = ?", strings.ToLower(query.Tag))
		}
	}

	var spends []models.Spend
	err := tx.
		Preload("Payer").
		Preload("Assignments", func(tx *gorm.DB) *gorm.DB { return tx.Order("user_id ASC") }).
		Preload("Assignments.User").
		Preload("Tags").
		Order("spends.date DESC, spends.created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&spends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list spends: %w", err)
	}
	return spends, nil
}

type spendDraft struct {
	payerID   uuid.UUID
	amount    decimal.Decimal
	currency  string
	fxRate    *decimal.Decimal
	splitType string
	splits    []ShareInput
}

// resolve validates a draft against the trip and computes the stored amounts.
func (s *SpendService) resolve(ctx context.Context, trip *models.Trip, draft spendDraft) (decimal.Decimal, decimal.Decimal, []ResolvedShare, error) {
	if !draft.amount.IsPositive() {
		return decimal.Zero, decimal.Zero, nil, utils.Validationf("amount must be greater than 0")
	}
	if !utils.IsCurrencyCode(draft.currency) {
		return decimal.Zero, decimal.Zero, nil, utils.Validationf("invalid currency: %s", draft.currency)
	}
	if !utils.RoundMoney(draft.amount, draft.currency).Equal(draft.amount) {
		return decimal.Zero, decimal.Zero, nil, utils.Validationf("amount has more decimals than %s allows", draft.currency)
	}

	members, err := memberSet(ctx, s.db, trip.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}
	if !members[draft.payerID] {
		return decimal.Zero, decimal.Zero, nil, utils.Validationf("payer must be a member of the trip")
	}

	inputs := draft.splits
	if len(inputs) == 0 && draft.splitType == models.SplitEqual {
		ids, err := ActiveMemberIDs(ctx, s.db, trip.ID)
		if err != nil {
			return decimal.Zero, decimal.Zero, nil, err
		}
		for _, id := range ids {
			inputs = append(inputs, ShareInput{UserID: id})
		}
	}
	for _, in := range inputs {
		if !members[in.UserID] {
			return decimal.Zero, decimal.Zero, nil, utils.Validationf("participant %s is not a member of the trip", in.UserID)
		}
	}

	rate, err := s.fx.Resolve(ctx, trip.ID, draft.currency, trip.BaseCurrency, draft.fxRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}
	normalized := utils.NormalizeAmount(draft.amount, rate, trip.BaseCurrency)

	shares, err := ResolveSplits(draft.splitType, draft.amount, normalized, draft.currency, trip.BaseCurrency, inputs)
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}
	return rate, normalized, shares, nil
}

func parseSplitInputs(splits []models.SplitInput) ([]ShareInput, error) {
	inputs := make([]ShareInput, 0, len(splits))
	for _, sp := range splits {
		id, err := uuid.Parse(sp.UserID)
		if err != nil {
			return nil, utils.Validationf("invalid user_id in splits: %s", sp.UserID)
		}
		inputs = append(inputs, ShareInput{UserID: id, Value: sp.Value})
	}
	return inputs, nil
}

func assignmentsFrom(splitType string, shares []ResolvedShare) []models.SpendAssignment {
	out := make([]models.SpendAssignment, 0, len(shares))
	for _, sh := range shares {
		out = append(out, models.SpendAssignment{
			UserID:                sh.UserID,
			ShareAmount:           sh.ShareAmount,
			NormalizedShareAmount: sh.NormalizedShareAmount,
			SplitType:             splitType,
			SplitValue:            sh.SplitValue,
		})
	}
	return out
}

// Create records a spend and its assignments in one transaction.
func (s *SpendService) Create(ctx context.Context, tripID, userID uuid.UUID, req models.CreateSpendRequest) (*models.Spend, error) {
	if _, err := RequireMember(ctx, s.db, tripID, userID); err != nil {
		return nil, err
	}
	trip, err := GetTrip(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}

	draft := spendDraft{
		payerID:   userID,
		amount:    req.Amount,
		currency:  strings.ToUpper(req.Currency),
		fxRate:    req.FxRate,
		splitType: req.SplitType,
	}
	if draft.currency == "" {
		draft.currency = trip.BaseCurrency
	}
	if req.PayerID != "" {
		if draft.payerID, err = uuid.Parse(req.PayerID); err != nil {
			return nil, utils.Validationf("invalid payer_id")
		}
	}
	if draft.splits, err = parseSplitInputs(req.Splits); err != nil {
		return nil, err
	}

	date := s.now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		if date, err = time.Parse(dateLayout, req.Date); err != nil {
			return nil, utils.Validationf("date must be YYYY-MM-DD")
		}
	}

	rate, normalized, shares, err := s.resolve(ctx, trip, draft)
	if err != nil {
		return nil, err
	}

	spend := models.Spend{
		TripID:           tripID,
		PayerID:          draft.payerID,
		Description:      strings.TrimSpace(req.Description),
		Amount:           draft.amount,
		Currency:         draft.currency,
		FxRate:           rate,
		NormalizedAmount: normalized,
		Date:             date,
		Status:           models.SpendOpen,
		SplitType:        draft.splitType,
		Notes:            req.Notes,
		CreatedBy:        userID,
		Assignments:      assignmentsFrom(draft.splitType, shares),
	}
	if err := s.db.WithContext(ctx).Create(&spend).Error; err != nil {
		return nil, fmt.Errorf("failed to create spend: %w", err)
	}

	created, err := s.loadSpend(ctx, spend.ID)
	if err != nil {
		return nil, err
	}
	LogActivity(ctx, s.db, tripID, userID, models.ActivitySpendAdded, spend.ID,
		fmt.Sprintf("added \"%s\" (%s %s)", spend.Description, spend.Currency, spend.Amount.StringFixed(utils.CurrencyPrecision(spend.Currency))))
	s.notifySpendAdded(*trip, *created)

	return created, nil
}

func (s *SpendService) notifySpendAdded(trip models.Trip, spend models.Spend) {
	if s.notifier == nil {
		return
	}
	participants := make([]models.User, 0, len(spend.Assignments))
	for _, a := range spend.Assignments {
		participants = append(participants, a.User)
	}
	go s.notifier.NotifySpendAdded(trip, spend, spend.Payer, participants)
}

// Update edits an OPEN spend. Assignments are recomputed whenever anything
// that feeds them changes; without new splits the existing participants and
// split values are reused.
func (s *SpendService) Update(ctx context.Context, spendID, userID uuid.UUID, req models.UpdateSpendRequest) (*models.Spend, error) {
	spend, err := s.Get(ctx, spendID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditor(ctx, spend, userID, "edit"); err != nil {
		return nil, err
	}
	if spend.Status != models.SpendOpen {
		return nil, fmt.Errorf("%w: closed spends cannot be edited, reopen it first", utils.ErrConflict)
	}
	trip, err := GetTrip(ctx, s.db, spend.TripID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		updates["description"] = desc
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return nil, utils.Validationf("date must be YYYY-MM-DD")
		}
		updates["date"] = date
	}

	recompute := req.Amount != nil || req.Currency != "" || req.FxRate != nil ||
		req.PayerID != "" || req.SplitType != "" || len(req.Splits) > 0
	var assignments []models.SpendAssignment

	if recompute {
		draft := spendDraft{
			payerID:   spend.PayerID,
			amount:    spend.Amount,
			currency:  spend.Currency,
			splitType: spend.SplitType,
		}
		if req.Amount != nil {
			draft.amount = *req.Amount
		}
		if req.Currency != "" {
			draft.currency = strings.ToUpper(req.Currency)
		}
		if req.FxRate != nil {
			draft.fxRate = req.FxRate
		} else if draft.currency == spend.Currency {
			rate := spend.FxRate
			draft.fxRate = &rate
		}
		if req.PayerID != "" {
			if draft.payerID, err = uuid.Parse(req.PayerID); err != nil {
				return nil, utils.Validationf("invalid payer_id")
			}
		}
		if req.SplitType != "" {
			draft.splitType = req.SplitType
		}
		if len(req.Splits) > 0 {
			if draft.splits, err = parseSplitInputs(req.Splits); err != nil {
				return nil, err
			}
		} else {
			for _, a := range spend.Assignments {
				draft.splits = append(draft.splits, ShareInput{UserID: a.UserID, Value: a.SplitValue})
			}
		}

		rate, normalized, shares, err := s.resolve(ctx, trip, draft)
		if err != nil {
			return nil, err
		}
		updates["payer_id"] = draft.payerID
		updates["amount"] = draft.amount
		updates["currency"] = draft.currency
		updates["fx_rate"] = rate
		updates["normalized_amount"] = normalized
		updates["split_type"] = draft.splitType
		assignments = assignmentsFrom(draft.splitType, shares)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Spend{}).Where("id = ?", spendID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update spend: %w", err)
			}
		}
		if recompute {
			if err := tx.Where("spend_id = ?", spendID).Delete(&models.SpendAssignment{}).Error; err != nil {
				return fmt.Errorf("failed to clear assignments: %w", err)
			}
			for i := range assignments {
				assignments[i].SpendID = spendID
			}
			if err := tx.Create(&assignments).Error; err != nil {
				return fmt.Errorf("failed to store assignments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogActivity(ctx, s.db, spend.TripID, userID, models.ActivitySpendUpdated, spendID, fmt.Sprintf("updated \"%s\"", spend.Description))
	return s.loadSpend(ctx, spendID)
}

// requireEditor allows the payer, the spend's creator or a trip manager.
func (s *SpendService) requireEditor(ctx context.Context, spend *models.Spend, userID uuid.UUID, action string) error {
	member, err := RequireMember(ctx, s.db, spend.TripID, userID)
	if err != nil {
		return err
	}
	if userID != spend.PayerID && userID != spend.CreatedBy && !member.CanManage() {
		return fmt.Errorf("%w: only the payer, the creator or a trip admin can %s this spend", utils.ErrForbidden, action)
	}
	return nil
}

// Delete soft-deletes a spend. The payer, its creator or a trip manager may do it.
func (s *SpendService) Delete(ctx context.Context, spendID, userID uuid.UUID) error {
	spend, err := s.loadSpend(ctx, spendID)
	if err != nil {
		return err
	}
	if err := s.requireEditor(ctx, spend, userID, "delete"); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Spend{}, "id = ?", spendID).Error; err != nil {
		return fmt.Errorf("failed to delete spend: %w", err)
	}
	LogActivity(ctx, s.db, spend.TripID, userID, models.ActivitySpendDeleted, spendID, fmt.Sprintf("deleted \"%s\"", spend.Description))
	return nil
}

// SetStatus closes or reopens a spend. Both states count toward balances.
// The same people who may edit a spend may close or reopen it.
func (s *SpendService) SetStatus(ctx context.Context, spendID, userID uuid.UUID, status string) (*models.Spend, error) {
	spend, err := s.Get(ctx, spendID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditor(ctx, spend, userID, "close or reopen"); err != nil {
		return nil, err
	}
	if spend.Status == status {
		return nil, fmt.Errorf("%w: spend is already %s", utils.ErrConflict, strings.ToLower(status))
	}

	if err := s.db.WithContext(ctx).Model(&models.Spend{}).Where("id = ?", spendID).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update spend status: %w", err)
	}

	activity, verb := models.ActivitySpendClosed, "closed"
	if status == models.SpendOpen {
		activity, verb = models.ActivitySpendReopened, "reopened"
	}
	LogActivity(ctx, s.db, spend.TripID, userID, activity, spendID, fmt.Sprintf("%s \"%s\"", verb, spend.Description))
	return s.loadSpend(ctx, spendID)
}
