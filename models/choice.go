package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ChoiceOpen   = "OPEN"
	ChoiceClosed = "CLOSED"
)

// Choice is a poll within a trip, such as picking a restaurant.
type Choice struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	TripID      uuid.UUID        `gorm:"type:uuid;index" json:"trip_id"`
	Name        string           `gorm:"not null;size:100" json:"name"`
	Description string           `json:"description,omitempty"`
	Status      string           `gorm:"not null;default:OPEN;size:10" json:"status"`
	MultiSelect bool             `gorm:"not null;default:false" json:"multi_select"`
	CreatedBy   uuid.UUID        `gorm:"type:uuid" json:"created_by"`
	Options     []ChoiceOption   `gorm:"foreignKey:ChoiceID" json:"options,omitempty"`
	Responses   []ChoiceResponse `gorm:"foreignKey:ChoiceID" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (c *Choice) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type ChoiceOption struct {
	ID       uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ChoiceID uuid.UUID        `gorm:"type:uuid;index" json:"choice_id"`
	Label    string           `gorm:"not null;size:255" json:"label"`
	Price    *decimal.Decimal `gorm:"type:decimal(18,4)" json:"price,omitempty"`
	Position int              `gorm:"not null;default:0" json:"position"`
}

func (o *ChoiceOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type ChoiceResponse struct {
	ChoiceID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"choice_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	OptionID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Request structs
type CreateChoiceRequest struct {
	Name        string              `json:"name" binding:"required,max=100"`
	Description string              `json:"description"`
	MultiSelect bool                `json:"multi_select"`
	Options     []ChoiceOptionInput `json:"options" binding:"required,min=1,dive"`
}

type ChoiceOptionInput struct {
	Label string           `json:"label" binding:"required,max=255"`
	Price *decimal.Decimal `json:"price"`
}

type ChoiceSelectionRequest struct {
	OptionIDs []string `json:"option_ids"`
}

// Response structs
type ChoiceResult struct {
	OptionID uuid.UUID        `json:"option_id"`
	Label    string           `json:"label"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Votes    int              `json:"votes"`
	Voters   []uuid.UUID      `json:"voters"`
}

type ChoiceDetail struct {
	Choice      Choice         `json:"choice"`
	Results     []ChoiceResult `json:"results"`
	MySelection []uuid.UUID    `json:"my_selection"`
}
