package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KanbanCard belongs to exactly one list; a move is expressed by mutating
// ListID. Completed may only become true when the card enters the board's
// terminal column, which is approval-gated for plain members.
type KanbanCard struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ListID       uuid.UUID      `json:"listId" gorm:"type:uuid;index;not null"`
	Title        string         `json:"title" gorm:"not null"`
	Description  string         `json:"description"`
	Position     int            `json:"position" gorm:"not null"`
	Completed    bool           `json:"completed" gorm:"default:false"`
	Approved     bool           `json:"approved" gorm:"default:false"`
	ApprovedByID *uuid.UUID     `json:"approvedById" gorm:"type:uuid"`
	ApprovedAt   *time.Time     `json:"approvedAt"`
	CreatorID    uuid.UUID      `json:"creatorId" gorm:"type:uuid;not null"`
	TaskID       *uuid.UUID     `json:"taskId" gorm:"type:uuid;index"`
	DueDate      *time.Time     `json:"dueDate"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Labels []CardLabel `json:"labels,omitempty" gorm:"many2many:card_label_assignments"`
}

func (c *KanbanCard) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateCardRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateCardRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   *bool      `json:"completed"`
}

type MoveCardRequest struct {
	ListID   uuid.UUID `json:"listId" validate:"required"`
	Position int       `json:"position"`
}
