package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/models"
	"gorm.io/gorm"
)

// LogActivity writes an immutable audit entry within the caller's
// transaction.
func LogActivity(tx *gorm.DB, projectID, boardID *uuid.UUID, userID uuid.UUID, actionType string, targetID *uuid.UUID, metadata map[string]interface{}) error {
	activity := models.Activity{
		ProjectID:  projectID,
		BoardID:    boardID,
		UserID:     userID,
		ActionType: actionType,
		TargetID:   targetID,
	}

	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			activity.Metadata = &s
		}
	}

	return tx.Create(&activity).Error
}
