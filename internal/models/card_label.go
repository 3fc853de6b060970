package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CardLabel is a board-scoped label; only the board owner manages the
// label set, members assign them to cards.
type CardLabel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	BoardID   uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	Name      string         `json:"name" gorm:"not null"`
	Color     string         `json:"color" gorm:"default:'#6b7280'"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (l *CardLabel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type CreateLabelRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}
