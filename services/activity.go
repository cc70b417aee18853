package services

import (
	"context"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LogActivity appends to a trip's event log. Failures are logged, never returned.
func LogActivity(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID, activityType string, referenceID uuid.UUID, description string) {
	activity := models.Activity{
		TripID:      tripID,
		UserID:      userID,
		Type:        activityType,
		ReferenceID: referenceID,
		Description: description,
	}
	if err := db.WithContext(ctx).Create(&activity).Error; err != nil {
		utils.Logger.WithError(err).WithField("trip_id", tripID.String()).Warnf("Failed to log %s activity", activityType)
	}
}

// ListActivity returns a trip's feed, newest first.
func ListActivity(ctx context.Context, db *gorm.DB, tripID uuid.UUID, page utils.PaginationQuery) ([]models.Activity, error) {
	var activities []models.Activity
	err := db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Preload("User").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&activities).Error
	return activities, err
}

// ListUserActivity merges the feeds of every trip the user belongs to.
func ListUserActivity(ctx context.Context, db *gorm.DB, userID uuid.UUID, page utils.PaginationQuery) ([]models.Activity, error) {
	trips, err := ListTrips(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	activities := []models.Activity{}
	if len(trips) == 0 {
		return activities, nil
	}

	names := make(map[uuid.UUID]string, len(trips))
	ids := make([]uuid.UUID, 0, len(trips))
	for _, t := range trips {
		names[t.ID] = t.Name
		ids = append(ids, t.ID)
	}

	err = db.WithContext(ctx).
		Where("trip_id IN ?", ids).
		Preload("User").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	for i := range activities {
		activities[i].TripName = names[activities[i].TripID]
	}
	return activities, nil
}
