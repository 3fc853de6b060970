package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CardAttachment stores the object key only; the bytes live in external
// object storage and are addressed through presigned URLs.
type CardAttachment struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CardID      uuid.UUID      `json:"cardId" gorm:"type:uuid;index;not null"`
	UploaderID  uuid.UUID      `json:"uploaderId" gorm:"type:uuid;not null"`
	FileName    string         `json:"fileName" gorm:"not null"`
	ObjectKey   string         `json:"-" gorm:"not null"`
	Size        int64          `json:"size"`
	ContentType string         `json:"contentType"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (a *CardAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
