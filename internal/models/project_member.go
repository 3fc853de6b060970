package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project member roles.
const (
	ProjectRoleImplementer = "IMPLEMENTER"
	ProjectRoleFollower    = "FOLLOWER"
	ProjectRoleCooperator  = "COOPERATOR"
)

type ProjectMember struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID      `json:"projectId" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID      `json:"userId" gorm:"type:uuid;index;not null"`
	Role      string         `json:"role" gorm:"not null;default:'IMPLEMENTER'"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (pm *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if pm.ID == uuid.Nil {
		pm.ID = uuid.New()
	}
	return nil
}

type AddProjectMemberRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Role   string    `json:"role"`
}
