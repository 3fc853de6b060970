package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project mirror statuses, denormalized from the workflow row.
const (
	ProjectStatusInProgress      = "IN_PROGRESS"
	ProjectStatusPendingApproval = "PENDING_APPROVAL"
	ProjectStatusCompleted       = "COMPLETED"
)

type Project struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	CreatorID   uuid.UUID      `json:"creatorId" gorm:"type:uuid;index;not null"`
	ManagerID   uuid.UUID      `json:"managerId" gorm:"type:uuid;index;not null"`
	Status      string         `json:"status" gorm:"not null;default:'IN_PROGRESS'"`
	Progress    int            `json:"progress" gorm:"default:0"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Members []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CreateProjectRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	ManagerID   *uuid.UUID `json:"managerId"`
}
