package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KanbanList is an ordered column on a board. Ordering is purely by
// ascending Position; dense renumbering is maintained by the kanban
// service, not by a constraint.
type KanbanList struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	BoardID   uuid.UUID      `json:"boardId" gorm:"type:uuid;index;not null"`
	Title     string         `json:"title" gorm:"not null"`
	Position  int            `json:"position" gorm:"not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Cards []KanbanCard `json:"cards,omitempty" gorm:"foreignKey:ListID"`
}

func (l *KanbanList) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type CreateListRequest struct {
	Title string `json:"title" validate:"required"`
}

type UpdateListRequest struct {
	Title *string `json:"title"`
}

type ReorderRequest struct {
	OrderedIDs []uuid.UUID `json:"orderedIds" validate:"required"`
}
