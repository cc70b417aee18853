package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityTripCreated    = "trip_created"
	ActivityTripUpdated    = "trip_updated"
	ActivityTripDeleted    = "trip_deleted"
	ActivityMemberJoined   = "member_joined"
	ActivityMemberLeft     = "member_left"
	ActivityRoleChanged    = "role_changed"
	ActivityRSVPChanged    = "rsvp_changed"
	ActivitySpendAdded     = "spend_added"
	ActivitySpendUpdated   = "spend_updated"
	ActivitySpendDeleted   = "spend_deleted"
	ActivitySpendClosed    = "spend_closed"
	ActivitySpendReopened  = "spend_reopened"
	ActivityChoiceCreated  = "choice_created"
	ActivityChoiceClosed   = "choice_closed"
	ActivityChecklistAdded = "checklist_added"
	ActivityInvitationSent = "invitation_sent"
)

type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID      uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	UserID      uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        string    `gorm:"not null;size:30" json:"type"`
	ReferenceID uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	Description string    `json:"description"`
	TripName    string    `gorm:"-" json:"trip_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
