package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow lifecycle states. A project only ever moves forward through
// these, in order.
const (
	WorkflowStatusReceived       = "RECEIVED"
	WorkflowStatusInProgress     = "IN_PROGRESS"
	WorkflowStatusCompleted      = "COMPLETED"
	WorkflowStatusSentToCustomer = "SENT_TO_CUSTOMER"
)

// ProjectWorkflow is the authoritative lifecycle record, one per project.
// Project.Status/Progress mirror it and must be written in the same
// transaction.
type ProjectWorkflow struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID     uuid.UUID `json:"projectId" gorm:"type:uuid;uniqueIndex;not null"`
	CurrentStatus string    `json:"currentStatus" gorm:"not null;default:'RECEIVED'"`

	ReceivedStartAt   *time.Time `json:"receivedStartAt"`
	InProgressStartAt *time.Time `json:"inProgressStartAt"`
	CompletedStartAt  *time.Time `json:"completedStartAt"`
	SentToCustomerAt  *time.Time `json:"sentToCustomerAt"`

	ReceivedConfirmedAt   *time.Time `json:"receivedConfirmedAt"`
	InProgressConfirmedAt *time.Time `json:"inProgressConfirmedAt"`
	CompletedConfirmedAt  *time.Time `json:"completedConfirmedAt"`

	CompletedApprovedAt   *time.Time `json:"completedApprovedAt"`
	CompletedApprovedByID *uuid.UUID `json:"completedApprovedById" gorm:"type:uuid"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (w *ProjectWorkflow) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
