package services

import (
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
)

// RecipientPolicy selects which slice of a project's membership a
// transition notifies.
type RecipientPolicy int

const (
	// FullMemberSet: manager, creator and every project member.
	FullMemberSet RecipientPolicy = iota
	// ApprovalSet: manager and creator only.
	ApprovalSet
)

// ProjectRecipients computes the deduplicated set of user IDs entitled to
// be notified about a project event, excluding the acting user. Pure read.
func ProjectRecipients(project *models.Project, policy RecipientPolicy, exclude uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID

	add := func(id uuid.UUID) {
		if id == uuid.Nil || id == exclude || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	add(project.ManagerID)
	add(project.CreatorID)

	if policy == FullMemberSet {
		var members []models.ProjectMember
		if err := database.DB.Where("project_id = ?", project.ID).Find(&members).Error; err != nil {
			return nil, err
		}
		for _, m := range members {
			add(m.UserID)
		}
	}

	return out, nil
}

// BoardRecipients computes the deduplicated set of user IDs on a board
// (owner plus members), excluding the acting user. Pure read.
func BoardRecipients(board *models.KanbanBoard, exclude uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID

	add := func(id uuid.UUID) {
		if id == uuid.Nil || id == exclude || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	add(board.OwnerID)

	var members []models.KanbanBoardMember
	if err := database.DB.Where("board_id = ?", board.ID).Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		add(m.UserID)
	}

	return out, nil
}

// IsProjectManagerOrCreator reports whether the user holds the approval
// authority on a project.
func IsProjectManagerOrCreator(project *models.Project, userID uuid.UUID) bool {
	return project.ManagerID == userID || project.CreatorID == userID
}

// IsBoardMember reports whether the user is the board owner or any member.
func IsBoardMember(boardID, userID uuid.UUID) bool {
	var board models.KanbanBoard
	if err := database.DB.Select("owner_id").First(&board, "id = ?", boardID).Error; err != nil {
		return false
	}
	if board.OwnerID == userID {
		return true
	}
	var count int64
	database.DB.Model(&models.KanbanBoardMember{}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Count(&count)
	return count > 0
}

// IsBoardAdmin reports whether the user is the board owner or an ADMIN
// member.
func IsBoardAdmin(board *models.KanbanBoard, userID uuid.UUID) bool {
	if board.OwnerID == userID {
		return true
	}
	var count int64
	database.DB.Model(&models.KanbanBoardMember{}).
		Where("board_id = ? AND user_id = ? AND role = ?", board.ID, userID, models.BoardRoleAdmin).
		Count(&count)
	return count > 0
}

// CanModerateCard reports whether the user may mutate a card's workflow
// fields: board owner, board admin, or the card's creator.
func CanModerateCard(board *models.KanbanBoard, card *models.KanbanCard, userID uuid.UUID) bool {
	if card.CreatorID == userID {
		return true
	}
	return IsBoardAdmin(board, userID)
}
