package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateTag(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID, req models.CreateTagRequest) (*models.Tag, error) {
	if _, err := RequireMember(ctx, db, tripID, userID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.Validationf("tag name is required")
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.Tag{}).Where("trip_id = ? AND LOWER(name) = ?", tripID, strings.ToLower(name)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check tag: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: tag %q already exists", utils.ErrConflict, name)
	}

	tag := models.Tag{TripID: tripID, Name: name, Color: req.Color, CreatedBy: userID}
	if err := db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &tag, nil
}

func ListTags(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) ([]models.Tag, error) {
	if _, err := RequireMember(ctx, db, tripID, userID); err != nil {
		return nil, err
	}
	tags := []models.Tag{}
	if err := db.WithContext(ctx).Where("trip_id = ?", tripID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// spendAndTag loads both sides of a tagging and checks they share a trip the caller belongs to.
func spendAndTag(ctx context.Context, db *gorm.DB, spendID, tagID, userID uuid.UUID) (*models.Spend, *models.Tag, error) {
	var spend models.Spend
	if err := db.WithContext(ctx).First(&spend, "id = ?", spendID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewNotFound("spend", spendID.String())
		}
		return nil, nil, fmt.Errorf("failed to load spend: %w", err)
	}
	if _, err := RequireMember(ctx, db, spend.TripID, userID); err != nil {
		return nil, nil, err
	}

	var tag models.Tag
	if err := db.WithContext(ctx).First(&tag, "id = ? AND trip_id = ?", tagID, spend.TripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewNotFound("tag", tagID.String())
		}
		return nil, nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &spend, &tag, nil
}

func AttachTag(ctx context.Context, db *gorm.DB, spendID, tagID, userID uuid.UUID) error {
	spend, tag, err := spendAndTag(ctx, db, spendID, tagID, userID)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(spend).Association("Tags").Append(tag); err != nil {
		return fmt.Errorf("failed to tag spend: %w", err)
	}
	return nil
}

func DetachTag(ctx context.Context, db *gorm.DB, spendID, tagID, userID uuid.UUID) error {
	spend, tag, err := spendAndTag(ctx, db, spendID, tagID, userID)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(spend).Association("Tags").Delete(tag); err != nil {
		return fmt.Errorf("failed to untag spend: %w", err)
	}
	return nil
}
