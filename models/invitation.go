package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRevoked  = "REVOKED"
	InvitationExpired  = "EXPIRED"
)

type Invitation struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TripID     uuid.UUID  `gorm:"type:uuid;index" json:"trip_id"`
	Trip       Trip       `gorm:"foreignKey:TripID" json:"-"`
	InvitedBy  uuid.UUID  `gorm:"type:uuid" json:"invited_by"`
	Email      string     `gorm:"size:255;index" json:"email"`
	Status     string     `gorm:"not null;default:PENDING;size:20" json:"status"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedBy *uuid.UUID `gorm:"type:uuid" json:"accepted_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type InvitationResponse struct {
	Invitation Invitation `json:"invitation"`
	Link       string     `json:"link"`
}
