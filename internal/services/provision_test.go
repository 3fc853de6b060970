package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateProjectBoard(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	board, err := GetOrCreateProjectBoard(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, board.Title)
	assert.Equal(t, manager.ID, board.OwnerID)
	assert.True(t, board.IsProjectBoard)
	require.NotNil(t, board.ProjectID)
	assert.Equal(t, project.ID, *board.ProjectID)

	var lists []models.KanbanList
	require.NoError(t, database.DB.Where("board_id = ?", board.ID).Order("position ASC").Find(&lists).Error)
	require.Len(t, lists, 4)
	assert.Equal(t, "Cần làm", lists[0].Title)
	assert.Equal(t, "Đang làm", lists[1].Title)
	assert.Equal(t, "Kiểm tra", lists[2].Title)
	assert.Equal(t, "Hoàn thành", lists[3].Title)
	for i, l := range lists {
		assert.Equal(t, i, l.Position)
	}

	var member models.KanbanBoardMember
	require.NoError(t, database.DB.Where("board_id = ? AND user_id = ?", board.ID, manager.ID).First(&member).Error)
	assert.Equal(t, models.BoardRoleAdmin, member.Role)
}

func TestGetOrCreateProjectBoardIdempotent(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	first, err := GetOrCreateProjectBoard(project.ID)
	require.NoError(t, err)
	second, err := GetOrCreateProjectBoard(project.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	database.DB.Model(&models.KanbanBoard{}).Where("project_id = ?", project.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateProjectBoardUnknownProject(t *testing.T) {
	setupTestDB(t)
	_, err := GetOrCreateProjectBoard(uuid.New())
	requireServiceError(t, err, KindNotFound)
}

func TestCreateCardForTask(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	creator := createUser(t, "creator")
	assignee := createUser(t, "assignee")
	project := createProject(t, manager, manager)

	task := models.Task{
		ProjectID:   project.ID,
		Title:       "Implement login",
		Description: "JWT based",
		AssigneeID:  assignee.ID,
		CreatorID:   creator.ID,
	}
	require.NoError(t, database.DB.Create(&task).Error)

	card := CreateCardForTask(&task)
	require.NotNil(t, card)
	assert.Equal(t, task.Title, card.Title)
	assert.Equal(t, task.Description, card.Description)
	assert.Equal(t, 0, card.Position)
	require.NotNil(t, card.TaskID)
	assert.Equal(t, task.ID, *card.TaskID)

	// Lands in the first (lowest-position) list.
	var list models.KanbanList
	require.NoError(t, database.DB.First(&list, "id = ?", card.ListID).Error)
	assert.Equal(t, "Cần làm", list.Title)

	// Assignee and creator are pulled onto the board as plain members.
	board, err := GetOrCreateProjectBoard(project.ID)
	require.NoError(t, err)
	for _, u := range []uuid.UUID{assignee.ID, creator.ID} {
		var m models.KanbanBoardMember
		require.NoError(t, database.DB.Where("board_id = ? AND user_id = ?", board.ID, u).First(&m).Error)
		assert.Equal(t, models.BoardRoleMember, m.Role)
	}
}

func TestCreateCardForTaskAppends(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "manager")
	project := createProject(t, manager, manager)

	for i := 0; i < 3; i++ {
		task := models.Task{
			ProjectID:  project.ID,
			Title:      "task",
			AssigneeID: manager.ID,
			CreatorID:  manager.ID,
		}
		require.NoError(t, database.DB.Create(&task).Error)
		card := CreateCardForTask(&task)
		require.NotNil(t, card)
		assert.Equal(t, i, card.Position)
	}
}

func TestCreateCardForTaskMissingProjectIsNoOp(t *testing.T) {
	setupTestDB(t)
	user := createUser(t, "user")

	task := models.Task{
		ID:         uuid.New(),
		ProjectID:  uuid.New(),
		Title:      "orphan",
		AssigneeID: user.ID,
		CreatorID:  user.ID,
	}

	// Mirroring is best-effort: a missing project degrades to nil.
	card := CreateCardForTask(&task)
	assert.Nil(t, card)

	var count int64
	database.DB.Model(&models.KanbanCard{}).Count(&count)
	assert.EqualValues(t, 0, count)
}
