package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag labels spends within one trip.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_trip_tag_name" json:"trip_id"`
	Name      string    `gorm:"not null;size:50;uniqueIndex:idx_trip_tag_name" json:"name"`
	Color     string    `gorm:"size:7" json:"color,omitempty"`
	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}
