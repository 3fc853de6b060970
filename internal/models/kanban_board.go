package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KanbanBoard struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title          string         `json:"title" gorm:"not null"`
	OwnerID        uuid.UUID      `json:"ownerId" gorm:"type:uuid;index;not null"`
	ProjectID      *uuid.UUID     `json:"projectId" gorm:"type:uuid;index"`
	IsProjectBoard bool           `json:"isProjectBoard" gorm:"default:false"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	Lists   []KanbanList        `json:"lists,omitempty" gorm:"foreignKey:BoardID"`
	Members []KanbanBoardMember `json:"members,omitempty" gorm:"foreignKey:BoardID"`
}

func (b *KanbanBoard) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type CreateBoardRequest struct {
	Title string `json:"title" validate:"required"`
}

type UpdateBoardRequest struct {
	Title *string `json:"title"`
}
