package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

const (
	RSVPPending  = "PENDING"
	RSVPGoing    = "GOING"
	RSVPMaybe    = "MAYBE"
	RSVPNotGoing = "NOT_GOING"
)

type Trip struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"not null;size:100" json:"name"`
	Description  string         `json:"description,omitempty"`
	Destination  string         `gorm:"size:255" json:"destination,omitempty"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	EndDate      *time.Time     `json:"end_date,omitempty"`
	BaseCurrency string         `gorm:"not null;default:USD;size:3" json:"base_currency"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Members      []TripMember   `gorm:"foreignKey:TripID" json:"members,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TripMember struct {
	TripID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"trip_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role     string    `gorm:"not null;default:MEMBER;size:20" json:"role"`
	RSVP     string    `gorm:"column:rsvp;not null;default:PENDING;size:20" json:"rsvp"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// CanManage reports whether the member may change trip settings and membership.
func (m TripMember) CanManage() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}

// Request structs
type CreateTripRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Description  string `json:"description"`
	Destination  string `json:"destination"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	EndDate      string `json:"end_date"`   // YYYY-MM-DD
	BaseCurrency string `json:"base_currency" binding:"omitempty,currency"`
}

type UpdateTripRequest struct {
	Name         string `json:"name" binding:"omitempty,max=100"`
	Description  string `json:"description"`
	Destination  string `json:"destination"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	BaseCurrency string `json:"base_currency" binding:"omitempty,currency"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

type RSVPRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING GOING MAYBE NOT_GOING"`
}

// Response structs
type TripResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Destination  string               `json:"destination,omitempty"`
	StartDate    *time.Time           `json:"start_date,omitempty"`
	EndDate      *time.Time           `json:"end_date,omitempty"`
	BaseCurrency string               `json:"base_currency"`
	CreatedBy    uuid.UUID            `json:"created_by"`
	Members      []TripMemberResponse `json:"members"`
	CreatedAt    time.Time            `json:"created_at"`
}

type TripMemberResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	RSVP      string    `json:"rsvp"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (t *Trip) ToResponse() TripResponse {
	members := make([]TripMemberResponse, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, TripMemberResponse{
			UserID:    m.UserID,
			Name:      m.User.Name,
			Email:     m.User.Email,
			AvatarURL: m.User.AvatarURL,
			Role:      m.Role,
			RSVP:      m.RSVP,
			JoinedAt:  m.JoinedAt,
		})
	}
	return TripResponse{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Destination:  t.Destination,
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		BaseCurrency: t.BaseCurrency,
		CreatedBy:    t.CreatedBy,
		Members:      members,
		CreatedAt:    t.CreatedAt,
	}
}
