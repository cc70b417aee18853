package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateChoice(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID, req models.CreateChoiceRequest) (*models.ChoiceDetail, error) {
	if _, err := RequireMember(ctx, db, tripID, userID); err != nil {
		return nil, err
	}
	if len(req.Options) == 0 {
		return nil, utils.Validationf("a choice needs at least one option")
	}

	choice := models.Choice{
		TripID:      tripID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      models.ChoiceOpen,
		MultiSelect: req.MultiSelect,
		CreatedBy:   userID,
	}
	for i, opt := range req.Options {
		if opt.Price != nil && opt.Price.IsNegative() {
			return nil, utils.Validationf("option prices cannot be negative")
		}
		choice.Options = append(choice.Options, models.ChoiceOption{
			Label:    strings.TrimSpace(opt.Label),
			Price:    opt.Price,
			Position: i,
		})
	}

	if err := db.WithContext(ctx).Create(&choice).Error; err != nil {
		return nil, fmt.Errorf("failed to create choice: %w", err)
	}
	LogActivity(ctx, db, tripID, userID, models.ActivityChoiceCreated, choice.ID, fmt.Sprintf("started \"%s\"", choice.Name))
	return GetChoice(ctx, db, choice.ID, userID)
}

func ListChoices(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) ([]models.Choice, error) {
	if _, err := RequireMember(ctx, db, tripID, userID); err != nil {
		return nil, err
	}
	choices := []models.Choice{}
	err := db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Preload("Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Order("created_at DESC").
		Find(&choices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}
	return choices, nil
}

func loadChoice(ctx context.Context, db *gorm.DB, choiceID uuid.UUID) (*models.Choice, error) {
	var choice models.Choice
	err := db.WithContext(ctx).
		Preload("Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Responses").
		First(&choice, "id = ?", choiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("choice", choiceID.String())
		}
		return nil, fmt.Errorf("failed to load choice: %w", err)
	}
	return &choice, nil
}

// GetChoice returns a choice with per-option tallies and the caller's picks.
func GetChoice(ctx context.Context, db *gorm.DB, choiceID, userID uuid.UUID) (*models.ChoiceDetail, error) {
	choice, err := loadChoice(ctx, db, choiceID)
	if err != nil {
		return nil, err
	}
	if _, err := RequireMember(ctx, db, choice.TripID, userID); err != nil {
		return nil, err
	}
	return tally(choice, userID), nil
}

func tally(choice *models.Choice, userID uuid.UUID) *models.ChoiceDetail {
	voters := make(map[uuid.UUID][]uuid.UUID, len(choice.Options))
	mine := []uuid.UUID{}
	for _, r := range choice.Responses {
		voters[r.OptionID] = append(voters[r.OptionID], r.UserID)
		if r.UserID == userID {
			mine = append(mine, r.OptionID)
		}
	}

	results := make([]models.ChoiceResult, 0, len(choice.Options))
	for _, opt := range choice.Options {
		v := voters[opt.ID]
		if v == nil {
			v = []uuid.UUID{}
		}
		sort.Slice(v, func(i, j int) bool { return v[i].String() < v[j].String() })
		results = append(results, models.ChoiceResult{
			OptionID: opt.ID,
			Label:    opt.Label,
			Price:    opt.Price,
			Votes:    len(v),
			Voters:   v,
		})
	}

	return &models.ChoiceDetail{Choice: *choice, Results: results, MySelection: mine}
}

// SetSelection replaces the caller's picks. An empty list withdraws them.
func SetSelection(ctx context.Context, db *gorm.DB, choiceID, userID uuid.UUID, optionIDs []string) (*models.ChoiceDetail, error) {
	choice, err := loadChoice(ctx, db, choiceID)
	if err != nil {
		return nil, err
	}
	if _, err := RequireMember(ctx, db, choice.TripID, userID); err != nil {
		return nil, err
	}
	if choice.Status != models.ChoiceOpen {
		return nil, fmt.Errorf("%w: choice is closed", utils.ErrConflict)
	}

	valid := make(map[uuid.UUID]bool, len(choice.Options))
	for _, opt := range choice.Options {
		valid[opt.ID] = true
	}
	picked := make([]uuid.UUID, 0, len(optionIDs))
	seen := make(map[uuid.UUID]bool, len(optionIDs))
	for _, raw := range optionIDs {
		id, err := uuid.Parse(raw)
		if err != nil || !valid[id] {
			return nil, utils.Validationf("unknown option: %s", raw)
		}
		if !seen[id] {
			seen[id] = true
			picked = append(picked, id)
		}
	}
	if !choice.MultiSelect && len(picked) > 1 {
		return nil, utils.Validationf("this choice allows only one option")
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("choice_id = ? AND user_id = ?", choiceID, userID).Delete(&models.ChoiceResponse{}).Error; err != nil {
			return fmt.Errorf("failed to clear selection: %w", err)
		}
		for _, id := range picked {
			if err := tx.Create(&models.ChoiceResponse{ChoiceID: choiceID, UserID: userID, OptionID: id}).Error; err != nil {
				return fmt.Errorf("failed to save selection: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetChoice(ctx, db, choiceID, userID)
}

// CloseChoice freezes a choice. The creator or a trip manager may close it.
func CloseChoice(ctx context.Context, db *gorm.DB, choiceID, userID uuid.UUID) (*models.ChoiceDetail, error) {
	choice, err := loadChoice(ctx, db, choiceID)
	if err != nil {
		return nil, err
	}
	member, err := RequireMember(ctx, db, choice.TripID, userID)
	if err != nil {
		return nil, err
	}
	if choice.CreatedBy != userID && !member.CanManage() {
		return nil, fmt.Errorf("%w: only the creator or a trip admin can close this choice", utils.ErrForbidden)
	}
	if choice.Status == models.ChoiceClosed {
		return nil, fmt.Errorf("%w: choice is already closed", utils.ErrConflict)
	}

	if err := db.WithContext(ctx).Model(&models.Choice{}).Where("id = ?", choiceID).Update("status", models.ChoiceClosed).Error; err != nil {
		return nil, fmt.Errorf("failed to close choice: %w", err)
	}
	LogActivity(ctx, db, choice.TripID, userID, models.ActivityChoiceClosed, choiceID, fmt.Sprintf("closed \"%s\"", choice.Name))
	return GetChoice(ctx, db, choiceID, userID)
}
