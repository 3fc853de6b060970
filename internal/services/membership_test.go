package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRecipientsFullMemberSet(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	creator := createUser(t, "creator")
	worker := createUser(t, "worker")
	follower := createUser(t, "follower")
	project := createProject(t, manager, creator)
	addProjectMember(t, project, worker, models.ProjectRoleImplementer)
	addProjectMember(t, project, follower, models.ProjectRoleFollower)

	got, err := ProjectRecipients(project, FullMemberSet, worker.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{manager.ID.String(), creator.ID.String(), follower.ID.String()},
		toStrings(got))
}

func TestProjectRecipientsApprovalSet(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	creator := createUser(t, "creator")
	worker := createUser(t, "worker")
	project := createProject(t, manager, creator)
	addProjectMember(t, project, worker, models.ProjectRoleImplementer)

	got, err := ProjectRecipients(project, ApprovalSet, uuid.Nil)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{manager.ID.String(), creator.ID.String()},
		toStrings(got))
}

func TestProjectRecipientsDeduplicates(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)
	// The manager also appears as a plain member row.
	addProjectMember(t, project, manager, models.ProjectRoleImplementer)

	got, err := ProjectRecipients(project, FullMemberSet, uuid.Nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{manager.ID.String()}, toStrings(got))

	got, err = ProjectRecipients(project, FullMemberSet, manager.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBoardRecipients(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)

	got, err := BoardRecipients(board, member.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{owner.ID.String()}, toStrings(got))
}

func TestIsBoardMember(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	stranger := createUser(t, "stranger")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)

	assert.True(t, IsBoardMember(board.ID, owner.ID))
	assert.True(t, IsBoardMember(board.ID, member.ID))
	assert.False(t, IsBoardMember(board.ID, stranger.ID))
	assert.False(t, IsBoardMember(uuid.New(), owner.ID))
}

func TestIsBoardAdmin(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	admin := createUser(t, "admin")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, admin, models.BoardRoleAdmin)
	addBoardMember(t, board, member, models.BoardRoleMember)

	assert.True(t, IsBoardAdmin(board, owner.ID))
	assert.True(t, IsBoardAdmin(board, admin.ID))
	assert.False(t, IsBoardAdmin(board, member.ID))
}

func TestCanModerateCard(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	other := createUser(t, "other")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)
	addBoardMember(t, board, other, models.BoardRoleMember)
	list := createListAt(t, board, "Cần làm", 0)
	card := createCardAt(t, list, "feature", 0, member)

	assert.True(t, CanModerateCard(board, card, owner.ID))
	assert.True(t, CanModerateCard(board, card, member.ID), "the creator can moderate their own card")
	assert.False(t, CanModerateCard(board, card, other.ID))
}

func TestIsProjectManagerOrCreator(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	creator := createUser(t, "creator")
	worker := createUser(t, "worker")
	project := createProject(t, manager, creator)

	assert.True(t, IsProjectManagerOrCreator(project, manager.ID))
	assert.True(t, IsProjectManagerOrCreator(project, creator.ID))
	assert.False(t, IsProjectManagerOrCreator(project, worker.ID))
}
