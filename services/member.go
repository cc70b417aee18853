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

// AddMemberByEmail adds an existing user to the trip. Unknown emails should
// go through an invitation instead.
func AddMemberByEmail(ctx context.Context, db *gorm.DB, tripID, actorID uuid.UUID, email string) (*models.TripMember, error) {
	if _, err := RequireManager(ctx, db, tripID, actorID); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	member, err := joinTrip(ctx, db, tripID, user.ID)
	if err != nil {
		return nil, err
	}
	LogActivity(ctx, db, tripID, actorID, models.ActivityMemberJoined, user.ID, fmt.Sprintf("added %s to the trip", user.Name))
	return member, nil
}

// joinTrip inserts a MEMBER row; it is ErrConflict when the user already belongs.
func joinTrip(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID) (*models.TripMember, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.TripMember{}).Where("trip_id = ? AND user_id = ?", tripID, userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: user is already a member of this trip", utils.ErrConflict)
	}

	member := models.TripMember{TripID: tripID, UserID: userID, Role: models.RoleMember, RSVP: models.RSVPPending}
	if err := db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &member, nil
}

// RemoveMember removes a member. Members may remove themselves; managers may
// remove anyone except the owner.
func RemoveMember(ctx context.Context, db *gorm.DB, tripID, actorID, targetID uuid.UUID) error {
	actor, err := RequireMember(ctx, db, tripID, actorID)
	if err != nil {
		return err
	}
	if actorID != targetID && !actor.CanManage() {
		return fmt.Errorf("%w: only trip owners and admins can remove members", utils.ErrForbidden)
	}

	var target models.TripMember
	if err := db.WithContext(ctx).Where("trip_id = ? AND user_id = ?", tripID, targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFound("member", targetID.String())
		}
		return fmt.Errorf("failed to load member: %w", err)
	}
	if target.Role == models.RoleOwner {
		return fmt.Errorf("%w: the trip owner cannot leave or be removed", utils.ErrConflict)
	}

	if err := db.WithContext(ctx).Delete(&target).Error; err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	LogActivity(ctx, db, tripID, actorID, models.ActivityMemberLeft, targetID, "removed a member from the trip")
	return nil
}

// UpdateMemberRole promotes or demotes a member. Only the owner may, and the
// owner role is not transferable here.
func UpdateMemberRole(ctx context.Context, db *gorm.DB, tripID, actorID, targetID uuid.UUID, role string) (*models.TripMember, error) {
	actor, err := RequireMember(ctx, db, tripID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleOwner {
		return nil, fmt.Errorf("%w: only the trip owner can change roles", utils.ErrForbidden)
	}

	var target models.TripMember
	if err := db.WithContext(ctx).Where("trip_id = ? AND user_id = ?", tripID, targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("member", targetID.String())
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if target.Role == models.RoleOwner {
		return nil, fmt.Errorf("%w: the owner's role cannot be changed", utils.ErrConflict)
	}

	if err := db.WithContext(ctx).Model(&models.TripMember{}).Where("trip_id = ? AND user_id = ?", tripID, targetID).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	target.Role = role
	LogActivity(ctx, db, tripID, actorID, models.ActivityRoleChanged, targetID, fmt.Sprintf("changed a member's role to %s", role))
	return &target, nil
}

// SetRSVP records the caller's attendance answer.
func SetRSVP(ctx context.Context, db *gorm.DB, tripID, userID uuid.UUID, status string) (*models.TripMember, error) {
	member, err := RequireMember(ctx, db, tripID, userID)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&models.TripMember{}).Where("trip_id = ? AND user_id = ?", tripID, userID).Update("rsvp", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update rsvp: %w", err)
	}
	member.RSVP = status
	LogActivity(ctx, db, tripID, userID, models.ActivityRSVPChanged, userID, fmt.Sprintf("is %s", strings.ToLower(strings.ReplaceAll(status, "_", " "))))
	return member, nil
}

// ActiveMemberIDs lists members who have not declined, in id order.
func ActiveMemberIDs(ctx context.Context, db *gorm.DB, tripID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&models.TripMember{}).
		Where("trip_id = ? AND rsvp <> ?", tripID, models.RSVPNotGoing).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return ids, nil
}

// memberSet returns the ids of every member of the trip.
func memberSet(ctx context.Context, db *gorm.DB, tripID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := db.WithContext(ctx).Model(&models.TripMember{}).Where("trip_id = ?", tripID).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
