package services

import (
	"context"
	"fmt"
	"strings"
	"tripsplit-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FindOrCreateUser maps a verified Firebase identity onto a local user,
// creating the row on first sign-in and refreshing the email on change.
func FindOrCreateUser(ctx context.Context, db *gorm.DB, firebaseUID, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	result := db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).Limit(1).Find(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to look up user: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		if email != "" && email != user.Email {
			if err := db.WithContext(ctx).Model(&user).Update("email", email).Error; err != nil {
				return nil, fmt.Errorf("failed to update user email: %w", err)
			}
			user.Email = email
		}
		return &user, nil
	}

	if name == "" {
		name = displayNameFromEmail(email)
	}
	user = models.User{
		FirebaseUID: firebaseUID,
		Email:       email,
		Name:        name,
		Currency:    "USD",
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	if email != "" {
		return email
	}
	return "Traveller"
}

// UsersByID loads users keyed by id; unknown ids are left out.
func UsersByID(ctx context.Context, db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
