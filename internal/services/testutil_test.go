package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB swaps the global connection for a fresh in-memory database
// with the full schema migrated. The database is named uniquely per test
// and opened with a shared cache so every pooled connection sees the same
// in-memory database rather than a fresh empty one.
func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.DB = db
	require.NoError(t, database.Migrate())
}

func createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := models.User{
		Email: fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8]),
		Name:  name,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return &user
}

func createProject(t *testing.T, manager, creator *models.User) *models.Project {
	t.Helper()
	project := models.Project{
		Name:      "Website redesign",
		ManagerID: manager.ID,
		CreatorID: creator.ID,
		Status:    models.ProjectStatusInProgress,
	}
	require.NoError(t, database.DB.Create(&project).Error)
	return &project
}

func addProjectMember(t *testing.T, project *models.Project, user *models.User, role string) {
	t.Helper()
	member := models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: role}
	require.NoError(t, database.DB.Create(&member).Error)
}

func createBoard(t *testing.T, owner *models.User) *models.KanbanBoard {
	t.Helper()
	board := models.KanbanBoard{Title: "Sprint board", OwnerID: owner.ID}
	require.NoError(t, database.DB.Create(&board).Error)
	return &board
}

func addBoardMember(t *testing.T, board *models.KanbanBoard, user *models.User, role string) {
	t.Helper()
	member := models.KanbanBoardMember{BoardID: board.ID, UserID: user.ID, Role: role}
	require.NoError(t, database.DB.Create(&member).Error)
}

func createListAt(t *testing.T, board *models.KanbanBoard, title string, position int) *models.KanbanList {
	t.Helper()
	list := models.KanbanList{BoardID: board.ID, Title: title, Position: position}
	require.NoError(t, database.DB.Create(&list).Error)
	return &list
}

func createCardAt(t *testing.T, list *models.KanbanList, title string, position int, creator *models.User) *models.KanbanCard {
	t.Helper()
	card := models.KanbanCard{ListID: list.ID, Title: title, Position: position, CreatorID: creator.ID}
	require.NoError(t, database.DB.Create(&card).Error)
	return &card
}

// cardTitlesInOrder reads back a list's cards sorted by position.
func cardTitlesInOrder(t *testing.T, listID uuid.UUID) []string {
	t.Helper()
	var cards []models.KanbanCard
	require.NoError(t, database.DB.Where("list_id = ?", listID).Order("position ASC").Find(&cards).Error)
	titles := make([]string, len(cards))
	for i, c := range cards {
		titles[i] = c.Title
	}
	return titles
}

// requirePositionsDense asserts a list's cards occupy 0..n-1 exactly.
func requirePositionsDense(t *testing.T, listID uuid.UUID) {
	t.Helper()
	var cards []models.KanbanCard
	require.NoError(t, database.DB.Where("list_id = ?", listID).Order("position ASC").Find(&cards).Error)
	for i, c := range cards {
		require.Equal(t, i, c.Position, "card %q should sit at position %d", c.Title, i)
	}
}

func requireServiceError(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	se := AsError(err)
	require.Equal(t, kind, se.Kind, "unexpected error kind: %v", se)
}
