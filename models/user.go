package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirebaseUID string    `gorm:"uniqueIndex;not null;size:128" json:"-"`
	Email       string    `gorm:"index;size:255" json:"email"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Currency    string    `gorm:"default:USD;size:3" json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type UpdateProfileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Currency  string `json:"currency" binding:"omitempty,currency"`
}

// Response struct (what we return to clients)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Currency:  u.Currency,
		CreatedAt: u.CreatedAt,
	}
}
