package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateWorkflowIdempotent(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	first, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusReceived, first.CurrentStatus)
	require.NotNil(t, first.ReceivedStartAt)

	second, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	database.DB.Model(&models.ProjectWorkflow{}).Where("project_id = ?", project.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestWorkflowFullLifecycle(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	worker := createUser(t, "worker")
	project := createProject(t, manager, manager)
	addProjectMember(t, project, worker, models.ProjectRoleImplementer)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)

	wf, err := ConfirmReceived(project.ID, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusInProgress, wf.CurrentStatus)
	require.NotNil(t, wf.ReceivedConfirmedAt)
	require.NotNil(t, wf.InProgressStartAt)

	var p models.Project
	require.NoError(t, database.DB.First(&p, "id = ?", project.ID).Error)
	assert.Equal(t, models.ProjectStatusInProgress, p.Status)
	assert.Equal(t, 0, p.Progress)

	wf, err = ConfirmInProgress(project.ID, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, wf.CurrentStatus)
	require.NotNil(t, wf.InProgressConfirmedAt)
	require.NotNil(t, wf.CompletedStartAt)

	require.NoError(t, database.DB.First(&p, "id = ?", project.ID).Error)
	assert.Equal(t, models.ProjectStatusPendingApproval, p.Status)
	assert.Equal(t, 100, p.Progress)

	wf, err = ApproveCompleted(project.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, wf.CurrentStatus)
	require.NotNil(t, wf.CompletedApprovedAt)
	require.NotNil(t, wf.CompletedApprovedByID)
	assert.Equal(t, manager.ID, *wf.CompletedApprovedByID)

	require.NoError(t, database.DB.First(&p, "id = ?", project.ID).Error)
	assert.Equal(t, models.ProjectStatusCompleted, p.Status)

	wf, err = ConfirmSentToCustomer(project.ID, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusSentToCustomer, wf.CurrentStatus)
	require.NotNil(t, wf.CompletedConfirmedAt)
	require.NotNil(t, wf.SentToCustomerAt)

	require.NoError(t, database.DB.First(&p, "id = ?", project.ID).Error)
	assert.Equal(t, models.ProjectStatusCompleted, p.Status)
	assert.Equal(t, 100, p.Progress)
}

func TestConfirmReceivedRejectsWrongState(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)

	_, err = ConfirmReceived(project.ID, manager.ID)
	require.NoError(t, err)

	// Repeating the same confirmation must be rejected, not absorbed.
	_, err = ConfirmReceived(project.ID, manager.ID)
	requireServiceError(t, err, KindInvalidTransition)
}

func TestTransitionsCannotSkipStates(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)

	_, err = ConfirmInProgress(project.ID, manager.ID)
	requireServiceError(t, err, KindInvalidTransition)

	_, err = ConfirmSentToCustomer(project.ID, manager.ID)
	requireServiceError(t, err, KindInvalidTransition)

	_, err = ApproveCompleted(project.ID, manager.ID)
	requireServiceError(t, err, KindInvalidTransition)
}

func TestSendToCustomerRequiresApproval(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)
	_, err = ConfirmReceived(project.ID, manager.ID)
	require.NoError(t, err)
	_, err = ConfirmInProgress(project.ID, manager.ID)
	require.NoError(t, err)

	_, err = ConfirmSentToCustomer(project.ID, manager.ID)
	requireServiceError(t, err, KindInvalidTransition)

	_, err = ApproveCompleted(project.ID, manager.ID)
	require.NoError(t, err)

	wf, err := ConfirmSentToCustomer(project.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusSentToCustomer, wf.CurrentStatus)
}

func TestApproveCompletedAuthority(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	creator := createUser(t, "creator")
	worker := createUser(t, "worker")
	project := createProject(t, manager, creator)
	addProjectMember(t, project, worker, models.ProjectRoleImplementer)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)
	_, err = ConfirmReceived(project.ID, worker.ID)
	require.NoError(t, err)
	_, err = ConfirmInProgress(project.ID, worker.ID)
	require.NoError(t, err)

	_, err = ApproveCompleted(project.ID, worker.ID)
	requireServiceError(t, err, KindForbidden)

	_, err = ApproveCompleted(project.ID, creator.ID)
	require.NoError(t, err)

	_, err = ApproveCompleted(project.ID, manager.ID)
	requireServiceError(t, err, KindAlreadyDone)
}

func TestTransitionEnqueuesOutboxEvent(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	worker := createUser(t, "worker")
	follower := createUser(t, "follower")
	project := createProject(t, manager, manager)
	addProjectMember(t, project, worker, models.ProjectRoleImplementer)
	addProjectMember(t, project, follower, models.ProjectRoleFollower)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)
	_, err = ConfirmReceived(project.ID, worker.ID)
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, database.DB.Find(&events).Error)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, NotifWorkflowTransition, ev.Type)
	assert.Equal(t, worker.ID, ev.ActorID)
	assert.Nil(t, ev.DeliveredAt)

	recipients := ev.RecipientIDs()
	assert.ElementsMatch(t, []string{manager.ID.String(), follower.ID.String()}, toStrings(recipients))
}

func TestApprovalNotifiesApprovalSetOnly(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	creator := createUser(t, "creator")
	worker := createUser(t, "worker")
	project := createProject(t, manager, creator)
	addProjectMember(t, project, worker, models.ProjectRoleImplementer)

	_, err := GetOrCreateWorkflow(project.ID)
	require.NoError(t, err)
	_, err = ConfirmReceived(project.ID, worker.ID)
	require.NoError(t, err)
	_, err = ConfirmInProgress(project.ID, worker.ID)
	require.NoError(t, err)
	_, err = ApproveCompleted(project.ID, manager.ID)
	require.NoError(t, err)

	var ev models.OutboxEvent
	require.NoError(t, database.DB.Where("type = ?", NotifWorkflowApproved).First(&ev).Error)

	// Plain members are not part of the approval audience.
	recipients := ev.RecipientIDs()
	assert.ElementsMatch(t, []string{creator.ID.String()}, toStrings(recipients))
}

func toStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
