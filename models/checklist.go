package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistTemplate is a reusable packing or to-do list owned by one user.
type ChecklistTemplate struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;index" json:"owner_id"`
	Name      string         `gorm:"not null;size:100" json:"name"`
	Items     []TemplateItem `gorm:"foreignKey:TemplateID" json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

func (t *ChecklistTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TemplateItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;index" json:"template_id"`
	Label      string    `gorm:"not null;size:255" json:"label"`
	Position   int       `gorm:"not null;default:0" json:"position"`
}

func (i *TemplateItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Checklist is a trip's copy of a list; items are ticked off by members.
type Checklist struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TripID     uuid.UUID       `gorm:"type:uuid;index" json:"trip_id"`
	TemplateID *uuid.UUID      `gorm:"type:uuid" json:"template_id,omitempty"`
	Name       string          `gorm:"not null;size:100" json:"name"`
	CreatedBy  uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	Items      []ChecklistItem `gorm:"foreignKey:ChecklistID" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (c *Checklist) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type ChecklistItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ChecklistID uuid.UUID  `gorm:"type:uuid;index" json:"checklist_id"`
	Label       string     `gorm:"not null;size:255" json:"label"`
	Position    int        `gorm:"not null;default:0" json:"position"`
	Done        bool       `gorm:"not null;default:false" json:"done"`
	DoneBy      *uuid.UUID `gorm:"type:uuid" json:"done_by,omitempty"`
	DoneAt      *time.Time `json:"done_at,omitempty"`
}

func (i *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type CreateTemplateRequest struct {
	Name  string   `json:"name" binding:"required,max=100"`
	Items []string `json:"items" binding:"required,min=1,dive,required,max=255"`
}

// CreateChecklistRequest instantiates a template, or builds a list from Items when TemplateID is empty.
type CreateChecklistRequest struct {
	TemplateID string   `json:"template_id"`
	Name       string   `json:"name" binding:"omitempty,max=100"`
	Items      []string `json:"items" binding:"omitempty,dive,required,max=255"`
}
