package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/services"
	"gorm.io/gorm"
)

func GetBoards(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var boards []models.KanbanBoard
	if err := database.DB.
		Where("owner_id = ? OR id IN (?)",
			userID,
			database.DB.Model(&models.KanbanBoardMember{}).Select("board_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&boards).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch boards",
		})
	}

	return c.JSON(boards)
}

func GetBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	if !services.IsBoardMember(boardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var board models.KanbanBoard
	if err := database.DB.
		Preload("Lists", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Lists.Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Lists.Cards.Labels").
		Preload("Members.User").
		First(&board, "id = ?", boardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	return c.JSON(board)
}

func CreateBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	board := models.KanbanBoard{
		Title:   req.Title,
		OwnerID: userID,
	}
	if err := database.DB.Create(&board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create board",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(board)
}

func UpdateBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var board models.KanbanBoard
	if err := database.DB.First(&board, "id = ? AND owner_id = ?", boardID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var req models.UpdateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		board.Title = *req.Title
	}

	if err := database.DB.Save(&board).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update board",
		})
	}

	return c.JSON(board)
}

func DeleteBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	if err := services.DeleteBoard(boardID, userID); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetProjectBoard returns (creating if needed) the project's linked board
func GetProjectBoard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	board, err := services.GetOrCreateProjectBoard(projectID)
	if err != nil {
		return serviceError(c, err)
	}

	// Anyone reaching the project's kanban becomes visible through the
	// board read below; membership itself stays manager-managed.
	_ = userID

	var full models.KanbanBoard
	if err := database.DB.
		Preload("Lists", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Lists.Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Members.User").
		First(&full, "id = ?", board.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch board",
		})
	}

	return c.JSON(full)
}

// Board members

func GetBoardMembers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	if !services.IsBoardMember(boardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var members []models.KanbanBoardMember
	database.DB.Where("board_id = ?", boardID).Preload("User").Find(&members)

	return c.JSON(members)
}

func AddBoardMember(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var req models.AddBoardMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId is required",
		})
	}

	member, err := services.AddBoardMember(boardID, req.UserID, req.Role, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}

func RemoveBoardMember(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}
	memberID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if err := services.RemoveBoardMember(boardID, memberID, userID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// Board labels (owner-managed)

func GetBoardLabels(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	if !services.IsBoardMember(boardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var labels []models.CardLabel
	database.DB.Where("board_id = ?", boardID).Order("created_at ASC").Find(&labels)

	return c.JSON(labels)
}

func CreateBoardLabel(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var board models.KanbanBoard
	if err := database.DB.First(&board, "id = ?", boardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if board.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the board owner can manage labels",
		})
	}

	var req models.CreateLabelRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Label name is required",
		})
	}

	label := models.CardLabel{BoardID: boardID, Name: req.Name}
	if req.Color != "" {
		label.Color = req.Color
	}
	if err := database.DB.Create(&label).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create label",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(label)
}

func DeleteBoardLabel(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}
	labelID, err := uuid.Parse(c.Params("labelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid label ID",
		})
	}

	var board models.KanbanBoard
	if err := database.DB.First(&board, "id = ?", boardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if board.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the board owner can manage labels",
		})
	}

	database.DB.Exec("DELETE FROM card_label_assignments WHERE card_label_id = ?", labelID)
	result := database.DB.Where("id = ? AND board_id = ?", labelID, boardID).Delete(&models.CardLabel{})
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Label not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetBoardActivity returns paginated audit entries for a board
func GetBoardActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	if !services.IsBoardMember(boardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}

	var activities []models.Activity
	database.DB.Where("board_id = ?", boardID).
		Preload("User").
		Order("created_at DESC").
		Limit(50).
		Find(&activities)

	return c.JSON(activities)
}
