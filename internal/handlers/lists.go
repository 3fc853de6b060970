package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/services"
)

func CreateList(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var req models.CreateListRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	list, err := services.CreateList(boardID, req.Title, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(list)
}

func UpdateList(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", listID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	if !services.IsBoardMember(list.BoardID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a member of this board",
		})
	}

	var req models.UpdateListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		list.Title = *req.Title
	}

	if err := database.DB.Save(&list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update list",
		})
	}

	return c.JSON(list)
}

func DeleteList(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", listID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	var board models.KanbanBoard
	if err := database.DB.First(&board, "id = ?", list.BoardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !services.IsBoardAdmin(&board, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the board owner or an admin can delete lists",
		})
	}

	var count int64
	database.DB.Model(&models.KanbanCard{}).Where("list_id = ?", listID).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "List still contains cards",
		})
	}

	if err := database.DB.Delete(&list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete list",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ReorderLists rewrites list positions from an ordered id array
func ReorderLists(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	boardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid board ID",
		})
	}

	var req models.ReorderRequest
	if err := c.BodyParser(&req); err != nil || len(req.OrderedIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "orderedIds is required",
		})
	}

	if err := services.ReorderLists(boardID, req.OrderedIDs, userID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}
