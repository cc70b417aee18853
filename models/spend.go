package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SpendOpen   = "OPEN"
	SpendClosed = "CLOSED"
)

const (
	SplitExact   = "EXACT"
	SplitPercent = "PERCENT"
	SplitEqual   = "EQUAL"
)

type Spend struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TripID           uuid.UUID         `gorm:"type:uuid;index" json:"trip_id"`
	PayerID          uuid.UUID         `gorm:"type:uuid;index" json:"payer_id"`
	Payer            User              `gorm:"foreignKey:PayerID" json:"-"`
	Description      string            `gorm:"not null;size:255" json:"description"`
	Amount           decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency         string            `gorm:"not null;size:3" json:"currency"`
	FxRate           decimal.Decimal   `gorm:"type:decimal(18,8);not null" json:"fx_rate"`
	NormalizedAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null" json:"normalized_amount"`
	Date             time.Time         `gorm:"not null;index" json:"date"`
	Status           string            `gorm:"not null;default:OPEN;size:10" json:"status"`
	SplitType        string            `gorm:"not null;size:10" json:"split_type"`
	Notes            string            `json:"notes,omitempty"`
	CreatedBy        uuid.UUID         `gorm:"type:uuid" json:"created_by"`
	Assignments      []SpendAssignment `gorm:"foreignKey:SpendID" json:"assignments,omitempty"`
	Tags             []Tag             `gorm:"many2many:spend_tags;" json:"tags,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (s *Spend) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SpendAssignment struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SpendID               uuid.UUID       `gorm:"type:uuid;index" json:"spend_id"`
	UserID                uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User                  User            `gorm:"foreignKey:UserID" json:"-"`
	ShareAmount           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"share_amount"`
	NormalizedShareAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"normalized_share_amount"`
	SplitType             string          `gorm:"not null;size:10" json:"split_type"`
	SplitValue            decimal.Decimal `gorm:"type:decimal(14,4)" json:"split_value"`
	CreatedAt             time.Time       `json:"created_at"`
}

func (sa *SpendAssignment) BeforeCreate(tx *gorm.DB) error {
	if sa.ID == uuid.Nil {
		sa.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateSpendRequest struct {
	Description string           `json:"description" binding:"required,max=255"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency" binding:"omitempty,currency"`
	FxRate      *decimal.Decimal `json:"fx_rate"`
	Date        string           `json:"date"` // YYYY-MM-DD
	PayerID     string           `json:"payer_id"`
	SplitType   string           `json:"split_type" binding:"required,oneof=EXACT PERCENT EQUAL"`
	Notes       string           `json:"notes"`
	Splits      []SplitInput     `json:"splits"`
}

// SplitInput carries an exact amount, a percentage, or (for EQUAL) just the participant.
type SplitInput struct {
	UserID string          `json:"user_id" binding:"required"`
	Value  decimal.Decimal `json:"value"`
}

type UpdateSpendRequest struct {
	Description string           `json:"description" binding:"omitempty,max=255"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency" binding:"omitempty,currency"`
	FxRate      *decimal.Decimal `json:"fx_rate"`
	Date        string           `json:"date"`
	PayerID     string           `json:"payer_id"`
	SplitType   string           `json:"split_type" binding:"omitempty,oneof=EXACT PERCENT EQUAL"`
	Notes       *string          `json:"notes"`
	Splits      []SplitInput     `json:"splits"`
}

type SpendListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=OPEN CLOSED"`
	Tag    string `form:"tag"`
}

// Response
type SpendResponse struct {
	ID               uuid.UUID            `json:"id"`
	TripID           uuid.UUID            `json:"trip_id"`
	PayerID          uuid.UUID            `json:"payer_id"`
	PayerName        string               `json:"payer_name"`
	Description      string               `json:"description"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         string               `json:"currency"`
	FxRate           decimal.Decimal      `json:"fx_rate"`
	NormalizedAmount decimal.Decimal      `json:"normalized_amount"`
	Date             time.Time            `json:"date"`
	Status           string               `json:"status"`
	SplitType        string               `json:"split_type"`
	Notes            string               `json:"notes,omitempty"`
	Assignments      []AssignmentResponse `json:"assignments"`
	Tags             []Tag                `json:"tags"`
	CreatedAt        time.Time            `json:"created_at"`
}

type AssignmentResponse struct {
	UserID                uuid.UUID       `json:"user_id"`
	UserName              string          `json:"user_name"`
	ShareAmount           decimal.Decimal `json:"share_amount"`
	NormalizedShareAmount decimal.Decimal `json:"normalized_share_amount"`
	SplitType             string          `json:"split_type"`
	SplitValue            decimal.Decimal `json:"split_value"`
}

// ToResponse expects Payer, Assignments.User and Tags to be preloaded.
func (s *Spend) ToResponse() SpendResponse {
	assignments := make([]AssignmentResponse, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		assignments = append(assignments, AssignmentResponse{
			UserID:                a.UserID,
			UserName:              a.User.Name,
			ShareAmount:           a.ShareAmount,
			NormalizedShareAmount: a.NormalizedShareAmount,
			SplitType:             a.SplitType,
			SplitValue:            a.SplitValue,
		})
	}
	tags := s.Tags
	if tags == nil {
		tags = []Tag{}
	}
	return SpendResponse{
		ID:               s.ID,
		TripID:           s.TripID,
		PayerID:          s.PayerID,
		PayerName:        s.Payer.Name,
		Description:      s.Description,
		Amount:           s.Amount,
		Currency:         s.Currency,
		FxRate:           s.FxRate,
		NormalizedAmount: s.NormalizedAmount,
		Date:             s.Date,
		Status:           s.Status,
		SplitType:        s.SplitType,
		Notes:            s.Notes,
		Assignments:      assignments,
		Tags:             tags,
		CreatedAt:        s.CreatedAt,
	}
}
