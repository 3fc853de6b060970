package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is an immutable audit entry. Workflow transitions record the
// old and new status in Metadata.
type Activity struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID  *uuid.UUID     `json:"projectId" gorm:"type:uuid;index"`
	BoardID    *uuid.UUID     `json:"boardId" gorm:"type:uuid;index"`
	UserID     uuid.UUID      `json:"userId" gorm:"type:uuid;not null"`
	ActionType string         `json:"actionType" gorm:"not null"` // workflow_transition, workflow_approved, card_moved, card_approved, member_added, member_removed
	TargetID   *uuid.UUID     `json:"targetId" gorm:"type:uuid"`
	Metadata   *string        `json:"metadata"` // JSON string for extra context
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
