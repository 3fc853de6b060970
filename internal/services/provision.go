package services

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/realtime"
	"gorm.io/gorm"
)

// Canonical seed lists for a project board, positions 0-3. The last one is
// the terminal column.
var defaultListTitles = []string{"Cần làm", "Đang làm", "Kiểm tra", "Hoàn thành"}

// GetOrCreateProjectBoard returns the project's linked board, creating it
// with the project manager as owner and the four canonical lists on first
// access. At most one project-linked board exists per project, enforced by
// this lookup-before-create.
func GetOrCreateProjectBoard(projectID uuid.UUID) (*models.KanbanBoard, error) {
	var project models.Project
	if err := database.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, NotFound("Project not found")
	}

	var board models.KanbanBoard
	err := database.DB.Where("project_id = ? AND is_project_board = ?", projectID, true).First(&board).Error
	if err == nil {
		return &board, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Internal(err)
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		board = models.KanbanBoard{
			Title:          project.Name,
			OwnerID:        project.ManagerID,
			ProjectID:      &project.ID,
			IsProjectBoard: true,
		}
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		member := models.KanbanBoardMember{
			BoardID: board.ID,
			UserID:  project.ManagerID,
			Role:    models.BoardRoleAdmin,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		for i, title := range defaultListTitles {
			list := models.KanbanList{BoardID: board.ID, Title: title, Position: i}
			if err := tx.Create(&list).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}
	return &board, nil
}

// ensureBoardMember adds a user as a plain member unless they are already
// the owner or a member.
func ensureBoardMember(tx *gorm.DB, board *models.KanbanBoard, userID uuid.UUID) error {
	if userID == uuid.Nil || userID == board.OwnerID {
		return nil
	}
	var count int64
	if err := tx.Model(&models.KanbanBoardMember{}).
		Where("board_id = ? AND user_id = ?", board.ID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	member := models.KanbanBoardMember{BoardID: board.ID, UserID: userID, Role: models.BoardRoleMember}
	return tx.Create(&member).Error
}

// CreateCardForTask mirrors an external task onto the project board as a
// card in the first list. Kanban mirroring is supplementary to the task
// system: any failure degrades to a logged no-op, never an error.
func CreateCardForTask(task *models.Task) *models.KanbanCard {
	board, err := GetOrCreateProjectBoard(task.ProjectID)
	if err != nil {
		log.Printf("provision: board for project %s unavailable: %v", task.ProjectID, err)
		return nil
	}

	var card models.KanbanCard
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := ensureBoardMember(tx, board, task.AssigneeID); err != nil {
			return err
		}
		if err := ensureBoardMember(tx, board, task.CreatorID); err != nil {
			return err
		}

		var todo models.KanbanList
		if err := tx.Where("board_id = ?", board.ID).Order("position ASC").First(&todo).Error; err != nil {
			return err
		}
		pos, err := nextPosition(tx, &models.KanbanCard{}, "list_id", todo.ID)
		if err != nil {
			return err
		}
		card = models.KanbanCard{
			ListID:      todo.ID,
			Title:       task.Title,
			Description: task.Description,
			Position:    pos,
			CreatorID:   task.CreatorID,
			TaskID:      &task.ID,
			DueDate:     task.DueDate,
		}
		return tx.Create(&card).Error
	})
	if txErr != nil {
		log.Printf("provision: card for task %s not created: %v", task.ID, txErr)
		return nil
	}

	broadcastBoard(board.ID, task.CreatorID, realtime.EventBoardChanged, card)
	return &card
}
