package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardChecklistItem struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CardID    uuid.UUID      `json:"cardId" gorm:"type:uuid;index;not null"`
	Title     string         `json:"title" gorm:"not null"`
	Done      bool           `json:"done" gorm:"default:false"`
	Position  int            `json:"position" gorm:"not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ci *CardChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

type CreateChecklistItemRequest struct {
	Title string `json:"title" validate:"required"`
}

type UpdateChecklistItemRequest struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}
