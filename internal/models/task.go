package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is the record the task system hands us when it wants a mirrored
// kanban card. The task system remains authoritative for everything else.
type Task struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID      `json:"projectId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	AssigneeID  uuid.UUID      `json:"assigneeId" gorm:"type:uuid;not null"`
	CreatorID   uuid.UUID      `json:"creatorId" gorm:"type:uuid;not null"`
	DueDate     *time.Time     `json:"dueDate"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type CreateTaskRequest struct {
	ProjectID   uuid.UUID  `json:"projectId" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	AssigneeID  uuid.UUID  `json:"assigneeId" validate:"required"`
	DueDate     *time.Time `json:"dueDate"`
}
