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
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func parseOptionalDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, utils.Validationf("%s must be YYYY-MM-DD", field)
	}
	return &parsed, nil
}

// GetTrip loads a trip with its members and their users.
func GetTrip(ctx context.Context, db *gorm.DB, tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := db.WithContext(ctx).
		Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("joined_at ASC") }).
		Preload("Members.User").
		First(&trip, "id = ?", tripID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("trip", tripID.String())
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	return &trip, nil
}

// RequireMember returns the caller's membership, ErrNotFound for a missing
// trip and ErrForbidden for a non-member.
func RequireMember(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) (*models.TripMember, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Trip{}).Where("id = ?", tripID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if count == 0 {
		return nil, utils.NewNotFound("trip", tripID.String())
	}

	var member models.TripMember
	err := db.WithContext(ctx).Where("trip_id = ? AND user_id = ?", tripID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: you are not a member of this trip", utils.ErrForbidden)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return &member, nil
}

// RequireManager is RequireMember restricted to owners and admins.
func RequireManager(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) (*models.TripMember, error) {
	member, err := RequireMember(ctx, db, tripID, userID)
	if err != nil {
		return nil, err
	}
	if !member.CanManage() {
		return nil, fmt.Errorf("%w: only trip owners and admins can do this", utils.ErrForbidden)
	}
	return member, nil
}

// CreateTrip stores the trip and makes the creator its owner.
func CreateTrip(ctx context.Context, db *gorm.DB, userID uuid.UUID, req models.CreateTripRequest) (*models.Trip, error) {
	start, err := parseOptionalDate(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate(req.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, utils.Validationf("end_date cannot be before start_date")
	}

	currency := strings.ToUpper(req.BaseCurrency)
	if currency == "" {
		currency = "USD"
	}

	trip := models.Trip{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Destination:  req.Destination,
		StartDate:    start,
		EndDate:      end,
		BaseCurrency: currency,
		CreatedBy:    userID,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&trip).Error; err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		owner := models.TripMember{TripID: trip.ID, UserID: userID, Role: models.RoleOwner, RSVP: models.RSVPGoing}
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to add trip owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	LogActivity(ctx, db, trip.ID, userID, models.ActivityTripCreated, trip.ID, fmt.Sprintf("created trip \"%s\"", trip.Name))
	return GetTrip(ctx, db, trip.ID)
}

// ListTrips returns the trips the user belongs to, most recent first.
func ListTrips(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]models.Trip, error) {
	var trips []models.Trip
	err := db.WithContext(ctx).
		Joins("JOIN trip_members ON trip_members.trip_id = trips.id").
		Where("trip_members.user_id = ?", userID).
		Preload("Members.User").
		Order("trips.created_at DESC").
		Find(&trips).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// UpdateTrip edits trip details. The base currency is locked once any spend exists.
func UpdateTrip(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID, req models.UpdateTripRequest) (*models.Trip, error) {
	if _, err := RequireManager(ctx, db, tripID, userID); err != nil {
		return nil, err
	}
	trip, err := GetTrip(ctx, db, tripID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Destination != "" {
		updates["destination"] = req.Destination
	}
	start, err := parseOptionalDate(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	if start != nil {
		updates["start_date"] = *start
	} else {
		start = trip.StartDate
	}
	end, err := parseOptionalDate(req.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	if end != nil {
		updates["end_date"] = *end
	} else {
		end = trip.EndDate
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, utils.Validationf("end_date cannot be before start_date")
	}

	if currency := strings.ToUpper(req.BaseCurrency); currency != "" && currency != trip.BaseCurrency {
		var spends int64
		if err := db.WithContext(ctx).Model(&models.Spend{}).Where("trip_id = ?", tripID).Count(&spends).Error; err != nil {
			return nil, fmt.Errorf("failed to count spends: %w", err)
		}
		if spends > 0 {
			return nil, fmt.Errorf("%w: base currency cannot change once spends exist", utils.ErrConflict)
		}
		updates["base_currency"] = currency
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(trip).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update trip: %w", err)
		}
		LogActivity(ctx, db, tripID, userID, models.ActivityTripUpdated, tripID, "updated trip details")
	}
	return GetTrip(ctx, db, tripID)
}

// DeleteTrip soft-deletes a trip. Only the owner may do it.
func DeleteTrip(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) error {
	member, err := RequireMember(ctx, db, tripID, userID)
	if err != nil {
		return err
	}
	if member.Role != models.RoleOwner {
		return fmt.Errorf("%w: only the trip owner can delete the trip", utils.ErrForbidden)
	}
	if err := db.WithContext(ctx).Delete(&models.Trip{}, "id = ?", tripID).Error; err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	LogActivity(ctx, db, tripID, userID, models.ActivityTripDeleted, tripID, "deleted the trip")
	return nil
}
