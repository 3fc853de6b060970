package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/realtime"
	"gorm.io/gorm"
)

// Notification types emitted by the workflow engine
const (
	NotifWorkflowTransition = "workflow_transition"
	NotifWorkflowApproved   = "workflow_approved"
)

// GetOrCreateWorkflow returns the project's workflow row, creating it at
// RECEIVED on first read. Transitions never create the row themselves.
func GetOrCreateWorkflow(projectID uuid.UUID) (*models.ProjectWorkflow, error) {
	var project models.Project
	if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, NotFound("Project not found")
	}

	var wf models.ProjectWorkflow
	err := database.DB.Where("project_id = ?", projectID).First(&wf).Error
	if err == nil {
		return &wf, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Internal(err)
	}

	now := time.Now()
	wf = models.ProjectWorkflow{
		ProjectID:       projectID,
		CurrentStatus:   models.WorkflowStatusReceived,
		ReceivedStartAt: &now,
	}
	if err := database.DB.Create(&wf).Error; err != nil {
		// Lost a concurrent create; the existing row wins.
		if err2 := database.DB.Where("project_id = ?", projectID).First(&wf).Error; err2 == nil {
			return &wf, nil
		}
		return nil, Internal(err)
	}
	return &wf, nil
}

// loadProjectAndWorkflow fetches both records or a typed rejection.
func loadProjectAndWorkflow(projectID uuid.UUID) (*models.Project, *models.ProjectWorkflow, error) {
	var project models.Project
	if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, nil, NotFound("Project not found")
	}
	var wf models.ProjectWorkflow
	if err := database.DB.Where("project_id = ?", projectID).First(&wf).Error; err != nil {
		return nil, nil, NotFound("Workflow not found")
	}
	return &project, &wf, nil
}

func transitionRejection(expected, actual string) error {
	return InvalidTransition(fmt.Sprintf("invalid transition: expected status %s, current status is %s", expected, actual))
}

// ConfirmReceived moves RECEIVED -> IN_PROGRESS.
func ConfirmReceived(projectID, actor uuid.UUID) (*models.ProjectWorkflow, error) {
	project, wf, err := loadProjectAndWorkflow(projectID)
	if err != nil {
		return nil, err
	}
	if wf.CurrentStatus != models.WorkflowStatusReceived {
		return nil, transitionRejection(models.WorkflowStatusReceived, wf.CurrentStatus)
	}

	recipients, rerr := ProjectRecipients(project, FullMemberSet, actor)
	if rerr != nil {
		return nil, Internal(rerr)
	}

	now := time.Now()
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProjectWorkflow{}).
			Where("id = ? AND current_status = ?", wf.ID, models.WorkflowStatusReceived).
			Updates(map[string]interface{}{
				"current_status":        models.WorkflowStatusInProgress,
				"received_confirmed_at": now,
				"in_progress_start_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent caller already confirmed.
			return transitionRejection(models.WorkflowStatusReceived, models.WorkflowStatusInProgress)
		}

		if err := mirrorProject(tx, project.ID, models.ProjectStatusInProgress, 0); err != nil {
			return err
		}
		if err := logTransition(tx, project.ID, actor, models.WorkflowStatusReceived, models.WorkflowStatusInProgress); err != nil {
			return err
		}
		return enqueueTransitionEvent(tx, project, actor, recipients, NotifWorkflowTransition,
			"Project in progress",
			fmt.Sprintf("\"%s\" was confirmed as received and is now in progress", project.Name),
			models.WorkflowStatusReceived, models.WorkflowStatusInProgress)
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}
	return reloadWorkflow(wf.ID)
}

// ConfirmInProgress moves IN_PROGRESS -> COMPLETED; the project mirror
// goes to PENDING_APPROVAL until a manager approves.
func ConfirmInProgress(projectID, actor uuid.UUID) (*models.ProjectWorkflow, error) {
	project, wf, err := loadProjectAndWorkflow(projectID)
	if err != nil {
		return nil, err
	}
	if wf.CurrentStatus != models.WorkflowStatusInProgress {
		return nil, transitionRejection(models.WorkflowStatusInProgress, wf.CurrentStatus)
	}

	recipients, rerr := ProjectRecipients(project, FullMemberSet, actor)
	if rerr != nil {
		return nil, Internal(rerr)
	}

	now := time.Now()
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProjectWorkflow{}).
			Where("id = ? AND current_status = ?", wf.ID, models.WorkflowStatusInProgress).
			Updates(map[string]interface{}{
				"current_status":           models.WorkflowStatusCompleted,
				"in_progress_confirmed_at": now,
				"completed_start_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transitionRejection(models.WorkflowStatusInProgress, models.WorkflowStatusCompleted)
		}

		if err := mirrorProject(tx, project.ID, models.ProjectStatusPendingApproval, 100); err != nil {
			return err
		}
		if err := logTransition(tx, project.ID, actor, models.WorkflowStatusInProgress, models.WorkflowStatusCompleted); err != nil {
			return err
		}
		return enqueueTransitionEvent(tx, project, actor, recipients, NotifWorkflowTransition,
			"Project awaiting approval",
			fmt.Sprintf("\"%s\" was completed and is awaiting approval", project.Name),
			models.WorkflowStatusInProgress, models.WorkflowStatusCompleted)
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}
	return reloadWorkflow(wf.ID)
}

// ApproveCompleted flips the approval gate on a COMPLETED project. Only
// the manager or creator may approve; the status itself does not change.
func ApproveCompleted(projectID, actor uuid.UUID) (*models.ProjectWorkflow, error) {
	project, wf, err := loadProjectAndWorkflow(projectID)
	if err != nil {
		return nil, err
	}
	if wf.CurrentStatus != models.WorkflowStatusCompleted {
		return nil, transitionRejection(models.WorkflowStatusCompleted, wf.CurrentStatus)
	}
	if wf.CompletedApprovedAt != nil {
		return nil, AlreadyDone("project completion has already been approved")
	}
	if !IsProjectManagerOrCreator(project, actor) {
		return nil, Forbidden("only the project manager or creator can approve completion")
	}

	recipients, rerr := ProjectRecipients(project, ApprovalSet, actor)
	if rerr != nil {
		return nil, Internal(rerr)
	}

	now := time.Now()
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProjectWorkflow{}).
			Where("id = ? AND current_status = ? AND completed_approved_at IS NULL", wf.ID, models.WorkflowStatusCompleted).
			Updates(map[string]interface{}{
				"completed_approved_at":    now,
				"completed_approved_by_id": actor,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return AlreadyDone("project completion has already been approved")
		}

		if err := mirrorProject(tx, project.ID, models.ProjectStatusCompleted, 100); err != nil {
			return err
		}
		if err := LogActivity(tx, &project.ID, nil, actor, "workflow_approved", nil, map[string]interface{}{
			"status": models.WorkflowStatusCompleted,
		}); err != nil {
			return err
		}
		return enqueueTransitionEvent(tx, project, actor, recipients, NotifWorkflowApproved,
			"Project approved",
			fmt.Sprintf("completion of \"%s\" was approved", project.Name),
			models.WorkflowStatusCompleted, models.WorkflowStatusCompleted)
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}
	return reloadWorkflow(wf.ID)
}

// ConfirmSentToCustomer moves COMPLETED -> SENT_TO_CUSTOMER, but only
// once the approval gate has been passed.
func ConfirmSentToCustomer(projectID, actor uuid.UUID) (*models.ProjectWorkflow, error) {
	project, wf, err := loadProjectAndWorkflow(projectID)
	if err != nil {
		return nil, err
	}
	if wf.CurrentStatus != models.WorkflowStatusCompleted {
		return nil, transitionRejection(models.WorkflowStatusCompleted, wf.CurrentStatus)
	}
	if wf.CompletedApprovedAt == nil {
		return nil, InvalidTransition("approval required before sending to customer")
	}

	recipients, rerr := ProjectRecipients(project, FullMemberSet, actor)
	if rerr != nil {
		return nil, Internal(rerr)
	}

	now := time.Now()
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProjectWorkflow{}).
			Where("id = ? AND current_status = ? AND completed_approved_at IS NOT NULL", wf.ID, models.WorkflowStatusCompleted).
			Updates(map[string]interface{}{
				"current_status":         models.WorkflowStatusSentToCustomer,
				"completed_confirmed_at": now,
				"sent_to_customer_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return transitionRejection(models.WorkflowStatusCompleted, models.WorkflowStatusSentToCustomer)
		}

		// Mirror stays COMPLETED for the final transition.
		if err := mirrorProject(tx, project.ID, models.ProjectStatusCompleted, 100); err != nil {
			return err
		}
		if err := logTransition(tx, project.ID, actor, models.WorkflowStatusCompleted, models.WorkflowStatusSentToCustomer); err != nil {
			return err
		}
		return enqueueTransitionEvent(tx, project, actor, recipients, NotifWorkflowTransition,
			"Project sent to customer",
			fmt.Sprintf("\"%s\" was sent to the customer", project.Name),
			models.WorkflowStatusCompleted, models.WorkflowStatusSentToCustomer)
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}
	return reloadWorkflow(wf.ID)
}

// mirrorProject keeps the denormalized project status/progress in lockstep
// with the workflow row, inside the same transaction.
func mirrorProject(tx *gorm.DB, projectID uuid.UUID, status string, progress int) error {
	return tx.Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{"status": status, "progress": progress}).Error
}

func logTransition(tx *gorm.DB, projectID, actor uuid.UUID, from, to string) error {
	return LogActivity(tx, &projectID, nil, actor, "workflow_transition", nil, map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

func enqueueTransitionEvent(tx *gorm.DB, project *models.Project, actor uuid.UUID, recipients []uuid.UUID, notifType, title, body, from, to string) error {
	if len(recipients) == 0 {
		return nil
	}
	meta, _ := json.Marshal(map[string]string{
		"projectId": project.ID.String(),
		"from":      from,
		"to":        to,
	})
	metaStr := string(meta)

	ev := models.OutboxEvent{
		ActorID:   actor,
		Type:      notifType,
		Title:     title,
		Body:      body,
		Metadata:  &metaStr,
		EventName: realtime.EventWorkflowChanged,
		ProjectID: &project.ID,
	}
	if notifType == NotifWorkflowApproved {
		ev.EventName = realtime.EventWorkflowApproved
	}
	ev.SetRecipients(recipients)
	return Enqueue(tx, &ev)
}

func reloadWorkflow(id uuid.UUID) (*models.ProjectWorkflow, error) {
	var wf models.ProjectWorkflow
	if err := database.DB.First(&wf, "id = ?", id).Error; err != nil {
		return nil, Internal(err)
	}
	return &wf, nil
}
