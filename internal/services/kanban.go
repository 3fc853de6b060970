package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/realtime"
	"gorm.io/gorm"
)

// Notification types emitted by the kanban engine
const (
	NotifCardMoved     = "card_moved"
	NotifCardApproved  = "card_approved"
	NotifMemberAdded   = "member_added"
	NotifMemberRemoved = "member_removed"
)

// Titles recognized as the terminal (completion) column.
var terminalListTitles = []string{"hoàn thành", "done"}

// IsTerminalListTitle reports whether a list title marks the terminal
// column, case-insensitively.
func IsTerminalListTitle(title string) bool {
	for _, t := range terminalListTitles {
		if strings.EqualFold(strings.TrimSpace(title), t) {
			return true
		}
	}
	return false
}

// nextPosition computes max(position)+1 for a container column inside the
// caller's transaction. Returns 0 for an empty container.
func nextPosition(tx *gorm.DB, model interface{}, column string, id uuid.UUID) (int, error) {
	var next int
	err := tx.Model(model).
		Where(column+" = ?", id).
		Select("COALESCE(MAX(position), -1) + 1").
		Scan(&next).Error
	return next, err
}

func loadBoard(boardID uuid.UUID) (*models.KanbanBoard, error) {
	var board models.KanbanBoard
	if err := database.DB.First(&board, "id = ?", boardID).Error; err != nil {
		return nil, NotFound("Board not found")
	}
	return &board, nil
}

func loadList(listID uuid.UUID) (*models.KanbanList, error) {
	var list models.KanbanList
	if err := database.DB.First(&list, "id = ?", listID).Error; err != nil {
		return nil, NotFound("List not found")
	}
	return &list, nil
}

// loadCard returns a card together with its list and board.
func loadCard(cardID uuid.UUID) (*models.KanbanCard, *models.KanbanList, *models.KanbanBoard, error) {
	var card models.KanbanCard
	if err := database.DB.First(&card, "id = ?", cardID).Error; err != nil {
		return nil, nil, nil, NotFound("Card not found")
	}
	list, err := loadList(card.ListID)
	if err != nil {
		return nil, nil, nil, err
	}
	board, err := loadBoard(list.BoardID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &card, list, board, nil
}

// broadcastBoard sends the lightweight "board changed" event to connected
// board members, excluding the actor. Independent of the outbox fan-out.
func broadcastBoard(boardID, actor uuid.UUID, eventType string, data interface{}) {
	realtime.WS.Broadcast(boardID, actor, realtime.Event{
		Type:    eventType,
		BoardID: boardID.String(),
		UserID:  actor.String(),
		Data:    data,
	})
}

// CreateList appends a list at the end of the board.
func CreateList(boardID uuid.UUID, title string, actor uuid.UUID) (*models.KanbanList, error) {
	board, err := loadBoard(boardID)
	if err != nil {
		return nil, err
	}
	if !IsBoardMember(board.ID, actor) {
		return nil, Forbidden("you are not a member of this board")
	}

	var list models.KanbanList
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &models.KanbanList{}, "board_id", boardID)
		if err != nil {
			return err
		}
		list = models.KanbanList{BoardID: boardID, Title: title, Position: pos}
		return tx.Create(&list).Error
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}

	broadcastBoard(boardID, actor, realtime.EventBoardChanged, list)
	return &list, nil
}

// ReorderLists rewrites every list's position to its index in orderedIDs,
// as one all-or-nothing batch. The id set must exactly match the board's
// lists.
func ReorderLists(boardID uuid.UUID, orderedIDs []uuid.UUID, actor uuid.UUID) error {
	board, err := loadBoard(boardID)
	if err != nil {
		return err
	}
	if !IsBoardMember(board.ID, actor) {
		return Forbidden("you are not a member of this board")
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&models.KanbanList{}).Where("board_id = ?", boardID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := checkIDSet(existing, orderedIDs, "list"); err != nil {
			return err
		}
		for i, id := range orderedIDs {
			if err := tx.Model(&models.KanbanList{}).Where("id = ?", id).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return AsError(txErr)
	}

	broadcastBoard(boardID, actor, realtime.EventBoardChanged, map[string]interface{}{"listsReordered": true})
	return nil
}

// CreateCard appends a card at the end of a list.
func CreateCard(listID uuid.UUID, req models.CreateCardRequest, actor uuid.UUID) (*models.KanbanCard, error) {
	list, err := loadList(listID)
	if err != nil {
		return nil, err
	}
	if !IsBoardMember(list.BoardID, actor) {
		return nil, Forbidden("you are not a member of this board")
	}

	var card models.KanbanCard
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &models.KanbanCard{}, "list_id", listID)
		if err != nil {
			return err
		}
		card = models.KanbanCard{
			ListID:      listID,
			Title:       req.Title,
			Description: req.Description,
			Position:    pos,
			CreatorID:   actor,
			DueDate:     req.DueDate,
		}
		return tx.Create(&card).Error
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}

	broadcastBoard(list.BoardID, actor, realtime.EventBoardChanged, card)
	return &card, nil
}

// ReorderCards rewrites every card's position within a list to its index
// in orderedIDs, as one all-or-nothing batch.
func ReorderCards(listID uuid.UUID, orderedIDs []uuid.UUID, actor uuid.UUID) error {
	list, err := loadList(listID)
	if err != nil {
		return err
	}
	if !IsBoardMember(list.BoardID, actor) {
		return Forbidden("you are not a member of this board")
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&models.KanbanCard{}).Where("list_id = ?", listID).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if err := checkIDSet(existing, orderedIDs, "card"); err != nil {
			return err
		}
		for i, id := range orderedIDs {
			if err := tx.Model(&models.KanbanCard{}).Where("id = ?", id).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return AsError(txErr)
	}

	broadcastBoard(list.BoardID, actor, realtime.EventBoardChanged, map[string]interface{}{"listId": listID, "cardsReordered": true})
	return nil
}

// checkIDSet verifies the reorder payload covers the container exactly.
func checkIDSet(existing, ordered []uuid.UUID, kind string) error {
	if len(existing) != len(ordered) {
		return InvalidTransition(fmt.Sprintf("reorder must include every %s exactly once", kind))
	}
	seen := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	for _, id := range ordered {
		if !seen[id] {
			return InvalidTransition(fmt.Sprintf("unknown %s id in reorder: %s", kind, id))
		}
		delete(seen, id)
	}
	return nil
}

// MoveCard moves a card to a destination list at a target index,
// renumbering the destination densely in one batch. Entry into the
// terminal column requires board owner/admin authority or prior card
// approval, and forces completed=true.
func MoveCard(cardID, destListID uuid.UUID, index int, actor uuid.UUID) (*models.KanbanCard, error) {
	card, srcList, board, err := loadCard(cardID)
	if err != nil {
		return nil, err
	}
	destList, err := loadList(destListID)
	if err != nil {
		return nil, err
	}
	if destList.BoardID != srcList.BoardID {
		return nil, InvalidTransition("destination list belongs to a different board")
	}
	if !IsBoardMember(board.ID, actor) {
		return nil, Forbidden("you are not a member of this board")
	}

	terminal := IsTerminalListTitle(destList.Title)
	if terminal && !card.Approved && !IsBoardAdmin(board, actor) {
		return nil, Forbidden("card must be approved before it can be moved to the done column")
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var destCards []models.KanbanCard
		if err := tx.Where("list_id = ? AND id != ?", destListID, cardID).
			Order("position ASC").
			Find(&destCards).Error; err != nil {
			return err
		}

		if index < 0 {
			index = 0
		}
		if index > len(destCards) {
			index = len(destCards)
		}

		// Renumber the destination densely, leaving a slot at the target
		// index. The source list's gap is deliberately left alone.
		for i, dc := range destCards {
			pos := i
			if i >= index {
				pos = i + 1
			}
			if dc.Position != pos {
				if err := tx.Model(&models.KanbanCard{}).Where("id = ?", dc.ID).Update("position", pos).Error; err != nil {
					return err
				}
			}
		}

		updates := map[string]interface{}{
			"list_id":  destListID,
			"position": index,
		}
		if terminal {
			updates["completed"] = true
		}
		if err := tx.Model(&models.KanbanCard{}).Where("id = ?", cardID).Updates(updates).Error; err != nil {
			return err
		}

		if err := LogActivity(tx, nil, &board.ID, actor, "card_moved", &card.ID, map[string]interface{}{
			"fromListId": srcList.ID.String(),
			"toListId":   destListID.String(),
			"position":   index,
			"completed":  terminal,
		}); err != nil {
			return err
		}

		if terminal {
			return enqueueCardEvent(tx, board, actor, card, NotifCardMoved, realtime.EventCardMoved,
				"Card completed",
				fmt.Sprintf("\"%s\" was moved to %s", card.Title, destList.Title))
		}
		return nil
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}

	broadcastBoard(board.ID, actor, realtime.EventCardMoved, map[string]interface{}{
		"cardId":     cardID.String(),
		"fromListId": srcList.ID.String(),
		"toListId":   destListID.String(),
		"position":   index,
	})

	var moved models.KanbanCard
	if err := database.DB.First(&moved, "id = ?", cardID).Error; err != nil {
		return nil, Internal(err)
	}
	return &moved, nil
}

// ApproveCard satisfies the terminal-column gate for a later move. It
// neither moves nor completes the card.
func ApproveCard(cardID, actor uuid.UUID) (*models.KanbanCard, error) {
	card, _, board, err := loadCard(cardID)
	if err != nil {
		return nil, err
	}
	if !CanModerateCard(board, card, actor) {
		return nil, Forbidden("only the board owner, an admin, or the card's creator can approve it")
	}
	if card.Approved {
		return nil, AlreadyDone("card is already approved")
	}

	now := time.Now()
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.KanbanCard{}).
			Where("id = ? AND approved = ?", cardID, false).
			Updates(map[string]interface{}{
				"approved":       true,
				"approved_by_id": actor,
				"approved_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return AlreadyDone("card is already approved")
		}

		if err := LogActivity(tx, nil, &board.ID, actor, "card_approved", &card.ID, nil); err != nil {
			return err
		}
		if card.CreatorID != actor {
			ev := models.OutboxEvent{
				ActorID:   actor,
				Type:      NotifCardApproved,
				Title:     "Card approved",
				Body:      fmt.Sprintf("\"%s\" was approved", card.Title),
				EventName: realtime.EventCardApproved,
				BoardID:   &board.ID,
			}
			ev.SetRecipients([]uuid.UUID{card.CreatorID})
			if meta := cardMetadata(board.ID, card.ID); meta != "" {
				ev.Metadata = &meta
			}
			return Enqueue(tx, &ev)
		}
		return nil
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}

	broadcastBoard(board.ID, actor, realtime.EventCardApproved, map[string]interface{}{"cardId": cardID.String()})

	var approved models.KanbanCard
	if err := database.DB.First(&approved, "id = ?", cardID).Error; err != nil {
		return nil, Internal(err)
	}
	return &approved, nil
}

// AddBoardMember shares a board. Owner only.
func AddBoardMember(boardID, userID uuid.UUID, role string, actor uuid.UUID) (*models.KanbanBoardMember, error) {
	board, err := loadBoard(boardID)
	if err != nil {
		return nil, err
	}
	if board.OwnerID != actor {
		return nil, Forbidden("only the board owner can add members")
	}
	if role != models.BoardRoleAdmin {
		role = models.BoardRoleMember
	}

	var existing models.KanbanBoardMember
	if err := database.DB.Where("board_id = ? AND user_id = ?", boardID, userID).First(&existing).Error; err == nil {
		return &existing, nil
	}

	member := models.KanbanBoardMember{BoardID: boardID, UserID: userID, Role: role}
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		if err := LogActivity(tx, nil, &boardID, actor, "member_added", &userID, nil); err != nil {
			return err
		}
		ev := models.OutboxEvent{
			ActorID:   actor,
			Type:      NotifMemberAdded,
			Title:     "Added to board",
			Body:      fmt.Sprintf("you were added to \"%s\"", board.Title),
			EventName: realtime.EventMemberAdded,
			BoardID:   &boardID,
		}
		ev.SetRecipients([]uuid.UUID{userID})
		return Enqueue(tx, &ev)
	})
	if txErr != nil {
		return nil, AsError(txErr)
	}

	broadcastBoard(boardID, actor, realtime.EventMemberAdded, map[string]interface{}{"userId": userID.String()})
	return &member, nil
}

// RemoveBoardMember removes a member. Owner only; the owner cannot remove
// themselves.
func RemoveBoardMember(boardID, userID, actor uuid.UUID) error {
	board, err := loadBoard(boardID)
	if err != nil {
		return err
	}
	if board.OwnerID != actor {
		return Forbidden("only the board owner can remove members")
	}
	if userID == board.OwnerID {
		return Forbidden("the board owner cannot be removed")
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("board_id = ? AND user_id = ?", boardID, userID).Delete(&models.KanbanBoardMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NotFound("Member not found")
		}
		if err := LogActivity(tx, nil, &boardID, actor, "member_removed", &userID, nil); err != nil {
			return err
		}
		ev := models.OutboxEvent{
			ActorID:   actor,
			Type:      NotifMemberRemoved,
			Title:     "Removed from board",
			Body:      fmt.Sprintf("you were removed from \"%s\"", board.Title),
			EventName: realtime.EventMemberRemoved,
			BoardID:   &boardID,
		}
		ev.SetRecipients([]uuid.UUID{userID})
		return Enqueue(tx, &ev)
	})
	if txErr != nil {
		return AsError(txErr)
	}

	broadcastBoard(boardID, actor, realtime.EventMemberRemoved, map[string]interface{}{"userId": userID.String()})
	return nil
}

// DeleteBoard removes a board and everything on it. Owner only.
// Attachment objects are removed from external storage first, best-effort.
func DeleteBoard(boardID, actor uuid.UUID) error {
	board, err := loadBoard(boardID)
	if err != nil {
		return err
	}
	if board.OwnerID != actor {
		return Forbidden("only the board owner can delete the board")
	}

	var cardIDs []uuid.UUID
	database.DB.Model(&models.KanbanCard{}).
		Where("list_id IN (?)", database.DB.Model(&models.KanbanList{}).Select("id").Where("board_id = ?", boardID)).
		Pluck("id", &cardIDs)

	if len(cardIDs) > 0 {
		var attachments []models.CardAttachment
		database.DB.Where("card_id IN ?", cardIDs).Find(&attachments)
		for _, a := range attachments {
			DeleteStoredObject(context.Background(), a.ObjectKey)
		}
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if len(cardIDs) > 0 {
			if err := tx.Exec("DELETE FROM card_label_assignments WHERE kanban_card_id IN ?", cardIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardAttachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardChecklistItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", cardIDs).Delete(&models.KanbanCard{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.KanbanList{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.CardLabel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", boardID).Delete(&models.KanbanBoardMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(board).Error
	})
	if txErr != nil {
		return AsError(txErr)
	}
	return nil
}

func enqueueCardEvent(tx *gorm.DB, board *models.KanbanBoard, actor uuid.UUID, card *models.KanbanCard, notifType, eventName, title, body string) error {
	recipients, err := BoardRecipients(board, actor)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}
	ev := models.OutboxEvent{
		ActorID:   actor,
		Type:      notifType,
		Title:     title,
		Body:      body,
		EventName: eventName,
		BoardID:   &board.ID,
	}
	if meta := cardMetadata(board.ID, card.ID); meta != "" {
		ev.Metadata = &meta
	}
	ev.SetRecipients(recipients)
	return Enqueue(tx, &ev)
}

func cardMetadata(boardID, cardID uuid.UUID) string {
	data, err := json.Marshal(map[string]string{
		"boardId": boardID.String(),
		"cardId":  cardID.String(),
	})
	if err != nil {
		return ""
	}
	return string(data)
}

// AddChecklistItem appends a checklist item at the end of the card's
// checklist.
func AddChecklistItem(cardID uuid.UUID, title string, actor uuid.UUID) (*models.CardChecklistItem, error) {
	var item models.CardChecklistItem
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &models.CardChecklistItem{}, "card_id", cardID)
		if err != nil {
			return Internal(err)
		}
		item = models.CardChecklistItem{
			CardID:   cardID,
			Title:    title,
			Position: pos,
		}
		if err := tx.Create(&item).Error; err != nil {
			return Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
