package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/services"
)

func CreateCard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	var req models.CreateCardRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	card, err := services.CreateCard(listID, req, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

func GetCard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	var card models.KanbanCard
	if err := database.DB.Preload("Labels").First(&card, "id = ?", cardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", card.ListID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}
	if !services.IsBoardMember(list.BoardID, userID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	return c.JSON(card)
}

func UpdateCard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	var card models.KanbanCard
	if err := database.DB.First(&card, "id = ?", cardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", card.ListID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}
	if !services.IsBoardMember(list.BoardID, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a member of this board",
		})
	}

	var req models.UpdateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		card.Title = *req.Title
	}
	if req.Description != nil {
		card.Description = *req.Description
	}
	if req.DueDate != nil {
		card.DueDate = req.DueDate
	}
	if req.Completed != nil {
		var board models.KanbanBoard
		if err := database.DB.First(&board, "id = ?", list.BoardID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Board not found",
			})
		}
		if !services.CanModerateCard(&board, &card, userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only the card creator or a board admin can toggle completion",
			})
		}
		card.Completed = *req.Completed
	}

	if err := database.DB.Save(&card).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update card",
		})
	}

	return c.JSON(card)
}

func DeleteCard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	var card models.KanbanCard
	if err := database.DB.First(&card, "id = ?", cardID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", card.ListID).Error; err != nil {
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
	if !services.CanModerateCard(&board, &card, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the card creator or a board admin can delete it",
		})
	}

	var attachments []models.CardAttachment
	database.DB.Where("card_id = ?", cardID).Find(&attachments)
	for _, a := range attachments {
		services.DeleteStoredObject(c.Context(), a.ObjectKey)
	}

	database.DB.Where("card_id = ?", cardID).Delete(&models.CardAttachment{})
	database.DB.Where("card_id = ?", cardID).Delete(&models.CardComment{})
	database.DB.Where("card_id = ?", cardID).Delete(&models.CardChecklistItem{})
	database.DB.Exec("DELETE FROM card_label_assignments WHERE kanban_card_id = ?", cardID)

	if err := database.DB.Delete(&card).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete card",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MoveCard moves a card to a destination list and index
func MoveCard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	var req models.MoveCardRequest
	if err := c.BodyParser(&req); err != nil || req.ListID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "listId is required",
		})
	}

	card, err := services.MoveCard(cardID, req.ListID, req.Position, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(card)
}

// ApproveCard flips the card's approval gate
func ApproveCard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, err := services.ApproveCard(cardID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(card)
}

// ReorderCards rewrites card positions within a list from an ordered id array
func ReorderCards(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid list ID",
		})
	}

	var req models.ReorderRequest
	if err := c.BodyParser(&req); err != nil || len(req.OrderedIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "orderedIds is required",
		})
	}

	if err := services.ReorderCards(listID, req.OrderedIDs, userID); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}
