package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxEvent is a durable fan-out record. It is written inside the same
// transaction as the state change it announces, and delivered later by the
// outbox worker. The state change therefore never fails because delivery
// failed, and delivery survives a process crash.
type OutboxEvent struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Recipients  string     `json:"recipients" gorm:"type:text;not null"` // JSON array of user IDs
	ActorID     uuid.UUID  `json:"actorId" gorm:"type:uuid;not null"`
	Type        string     `json:"type" gorm:"not null"`
	Title       string     `json:"title" gorm:"not null"`
	Body        string     `json:"body"`
	Metadata    *string    `json:"metadata"`
	EventName   string     `json:"eventName" gorm:"not null"` // socket event name
	ProjectID   *uuid.UUID `json:"projectId" gorm:"type:uuid"`
	BoardID     *uuid.UUID `json:"boardId" gorm:"type:uuid"`
	Attempts    int        `json:"attempts" gorm:"default:0"`
	LastError   *string    `json:"-"`
	DeliveredAt *time.Time `json:"deliveredAt" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// SetRecipients stores the recipient set as a JSON array.
func (e *OutboxEvent) SetRecipients(ids []uuid.UUID) {
	data, _ := json.Marshal(ids)
	e.Recipients = string(data)
}

// RecipientIDs decodes the stored recipient set.
func (e *OutboxEvent) RecipientIDs() []uuid.UUID {
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(e.Recipients), &ids); err != nil {
		return nil
	}
	return ids
}
