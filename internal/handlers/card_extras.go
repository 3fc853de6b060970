package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/middleware"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/realtime"
	"github.com/ngocminh/workpoint-api/internal/services"
)

// cardBoard resolves a card's list and board, checking membership.
func cardBoard(c *fiber.Ctx, cardID, userID uuid.UUID) (*models.KanbanCard, *models.KanbanBoard, bool) {
	var card models.KanbanCard
	if err := database.DB.First(&card, "id = ?", cardID).Error; err != nil {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Card not found"})
		return nil, nil, false
	}
	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", card.ListID).Error; err != nil {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "List not found"})
		return nil, nil, false
	}
	var board models.KanbanBoard
	if err := database.DB.First(&board, "id = ?", list.BoardID).Error; err != nil {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		return nil, nil, false
	}
	if !services.IsBoardMember(board.ID, userID) {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this board"})
		return nil, nil, false
	}
	return &card, &board, true
}

// Comments

func AddCardComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, board, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Comment text is required",
		})
	}

	comment := models.CardComment{CardID: card.ID, UserID: userID, Text: req.Text}
	if err := database.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add comment",
		})
	}

	database.DB.Preload("User").First(&comment, "id = ?", comment.ID)

	realtime.WS.Broadcast(board.ID, userID, realtime.Event{
		Type:    realtime.EventBoardChanged,
		BoardID: board.ID.String(),
		UserID:  userID.String(),
		Data:    fiber.Map{"cardId": card.ID.String(), "commentId": comment.ID.String()},
	})

	return c.Status(fiber.StatusCreated).JSON(comment)
}

func GetCardComments(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, _, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	var comments []models.CardComment
	database.DB.Where("card_id = ?", card.ID).
		Preload("User").
		Order("created_at ASC").
		Find(&comments)

	return c.JSON(comments)
}

func DeleteCardComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	commentID, err := uuid.Parse(c.Params("commentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid comment ID",
		})
	}

	var comment models.CardComment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	if comment.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only delete your own comments",
		})
	}

	database.DB.Delete(&comment)

	return c.JSON(fiber.Map{"success": true})
}

// Checklist items

func AddChecklistItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, board, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	var req models.CreateChecklistItemRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	item, err := services.AddChecklistItem(card.ID, req.Title, userID)
	if err != nil {
		return serviceError(c, err)
	}

	realtime.WS.Broadcast(board.ID, userID, realtime.Event{
		Type:    realtime.EventBoardChanged,
		BoardID: board.ID.String(),
		UserID:  userID.String(),
		Data:    fiber.Map{"cardId": card.ID.String()},
	})

	return c.Status(fiber.StatusCreated).JSON(item)
}

func UpdateChecklistItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid checklist item ID",
		})
	}

	var item models.CardChecklistItem
	if err := database.DB.First(&item, "id = ?", itemID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Checklist item not found",
		})
	}

	if _, _, ok := cardBoard(c, item.CardID, userID); !ok {
		return nil
	}

	var req models.UpdateChecklistItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		item.Title = *req.Title
	}
	if req.Done != nil {
		item.Done = *req.Done
	}

	if err := database.DB.Save(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update checklist item",
		})
	}

	return c.JSON(item)
}

func DeleteChecklistItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid checklist item ID",
		})
	}

	var item models.CardChecklistItem
	if err := database.DB.First(&item, "id = ?", itemID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Checklist item not found",
		})
	}

	if _, _, ok := cardBoard(c, item.CardID, userID); !ok {
		return nil
	}

	database.DB.Delete(&item)

	return c.JSON(fiber.Map{"success": true})
}

// Attachments

func UploadCardAttachment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, board, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	if services.Store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File storage is not configured",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}
	if file.Size > 20*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File must be under 20MB",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := fmt.Sprintf("attachments/%s/%s%s", card.ID, uuid.New().String(), ext)
	contentType := file.Header.Get("Content-Type")

	if _, err := services.Store.Put(c.Context(), key, src, file.Size, contentType); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store file",
		})
	}

	attachment := models.CardAttachment{
		CardID:      card.ID,
		UploaderID:  userID,
		FileName:    file.Filename,
		ObjectKey:   key,
		Size:        file.Size,
		ContentType: contentType,
	}
	if err := database.DB.Create(&attachment).Error; err != nil {
		services.DeleteStoredObject(c.Context(), key)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save attachment",
		})
	}

	realtime.WS.Broadcast(board.ID, userID, realtime.Event{
		Type:    realtime.EventBoardChanged,
		BoardID: board.ID.String(),
		UserID:  userID.String(),
		Data:    fiber.Map{"cardId": card.ID.String(), "attachmentId": attachment.ID.String()},
	})

	return c.Status(fiber.StatusCreated).JSON(attachment)
}

func GetCardAttachments(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}

	card, _, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	var attachments []models.CardAttachment
	database.DB.Where("card_id = ?", card.ID).Order("created_at ASC").Find(&attachments)

	return c.JSON(attachments)
}

// GetAttachmentURL issues a short-lived presigned download URL
func GetAttachmentURL(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	attachmentID, err := uuid.Parse(c.Params("attachmentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attachment ID",
		})
	}

	var attachment models.CardAttachment
	if err := database.DB.First(&attachment, "id = ?", attachmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attachment not found",
		})
	}

	if _, _, ok := cardBoard(c, attachment.CardID, userID); !ok {
		return nil
	}

	if services.Store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "File storage is not configured",
		})
	}

	url, err := services.Store.PresignedURL(c.Context(), attachment.ObjectKey, 15*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate download URL",
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

func DeleteCardAttachment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	attachmentID, err := uuid.Parse(c.Params("attachmentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attachment ID",
		})
	}

	var attachment models.CardAttachment
	if err := database.DB.First(&attachment, "id = ?", attachmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attachment not found",
		})
	}

	card, board, ok := cardBoard(c, attachment.CardID, userID)
	if !ok {
		return nil
	}

	if attachment.UploaderID != userID && !services.CanModerateCard(board, card, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the uploader or a board admin can delete attachments",
		})
	}

	// Backing object first, best-effort; the record goes regardless.
	services.DeleteStoredObject(c.Context(), attachment.ObjectKey)

	if err := database.DB.Delete(&attachment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete attachment",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Label assignment

func AssignCardLabel(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}
	labelID, err := uuid.Parse(c.Params("labelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid label ID",
		})
	}

	card, board, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	var label models.CardLabel
	if err := database.DB.First(&label, "id = ? AND board_id = ?", labelID, board.ID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Label not found",
		})
	}

	if err := database.DB.Model(card).Association("Labels").Append(&label); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign label",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func UnassignCardLabel(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cardID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid card ID",
		})
	}
	labelID, err := uuid.Parse(c.Params("labelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid label ID",
		})
	}

	card, _, ok := cardBoard(c, cardID, userID)
	if !ok {
		return nil
	}

	var label models.CardLabel
	if err := database.DB.First(&label, "id = ?", labelID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Label not found",
		})
	}

	if err := database.DB.Model(card).Association("Labels").Delete(&label); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove label",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
