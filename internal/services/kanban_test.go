package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminalListTitle(t *testing.T) {
	assert.True(t, IsTerminalListTitle("Hoàn thành"))
	assert.True(t, IsTerminalListTitle("hoàn thành"))
	assert.True(t, IsTerminalListTitle("Done"))
	assert.True(t, IsTerminalListTitle("  done  "))
	assert.False(t, IsTerminalListTitle("Đang làm"))
	assert.False(t, IsTerminalListTitle("Doneish"))
}

func TestCreateListAppends(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)

	first, err := CreateList(board.ID, "Backlog", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)

	second, err := CreateList(board.ID, "Doing", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)
}

func TestCreateListRequiresMembership(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	stranger := createUser(t, "stranger")
	board := createBoard(t, owner)

	_, err := CreateList(board.ID, "Backlog", stranger.ID)
	requireServiceError(t, err, KindForbidden)
}

func TestCreateCardAppendsDense(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	list := createListAt(t, board, "Backlog", 0)

	for i, title := range []string{"a", "b", "c"} {
		card, err := CreateCard(list.ID, models.CreateCardRequest{Title: title}, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, i, card.Position)
	}
	requirePositionsDense(t, list.ID)
}

func TestReorderCards(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	list := createListAt(t, board, "Backlog", 0)
	a := createCardAt(t, list, "a", 0, owner)
	b := createCardAt(t, list, "b", 1, owner)
	c := createCardAt(t, list, "c", 2, owner)

	require.NoError(t, ReorderCards(list.ID, []uuid.UUID{c.ID, a.ID, b.ID}, owner.ID))

	assert.Equal(t, []string{"c", "a", "b"}, cardTitlesInOrder(t, list.ID))
	requirePositionsDense(t, list.ID)
}

func TestReorderCardsRejectsPartialSet(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	list := createListAt(t, board, "Backlog", 0)
	a := createCardAt(t, list, "a", 0, owner)
	createCardAt(t, list, "b", 1, owner)

	err := ReorderCards(list.ID, []uuid.UUID{a.ID}, owner.ID)
	requireServiceError(t, err, KindInvalidTransition)

	err = ReorderCards(list.ID, []uuid.UUID{a.ID, uuid.New()}, owner.ID)
	requireServiceError(t, err, KindInvalidTransition)

	// Rejected reorders leave the list untouched.
	assert.Equal(t, []string{"a", "b"}, cardTitlesInOrder(t, list.ID))
}

func TestReorderListsRewritesPositions(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	todo := createListAt(t, board, "Cần làm", 0)
	doing := createListAt(t, board, "Đang làm", 1)
	done := createListAt(t, board, "Hoàn thành", 2)

	require.NoError(t, ReorderLists(board.ID, []uuid.UUID{done.ID, todo.ID, doing.ID}, owner.ID))

	var lists []models.KanbanList
	require.NoError(t, database.DB.Where("board_id = ?", board.ID).Order("position ASC").Find(&lists).Error)
	require.Len(t, lists, 3)
	assert.Equal(t, "Hoàn thành", lists[0].Title)
	assert.Equal(t, "Cần làm", lists[1].Title)
	assert.Equal(t, "Đang làm", lists[2].Title)
}

func TestMoveCardInsertsDensely(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	src := createListAt(t, board, "Cần làm", 0)
	dst := createListAt(t, board, "Đang làm", 1)
	moving := createCardAt(t, src, "moving", 0, owner)
	createCardAt(t, dst, "x", 0, owner)
	createCardAt(t, dst, "y", 1, owner)
	createCardAt(t, dst, "z", 2, owner)

	moved, err := MoveCard(moving.ID, dst.ID, 1, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.ListID)
	assert.Equal(t, 1, moved.Position)
	assert.False(t, moved.Completed)

	assert.Equal(t, []string{"x", "moving", "y", "z"}, cardTitlesInOrder(t, dst.ID))
	requirePositionsDense(t, dst.ID)
}

func TestMoveCardClampsIndex(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	src := createListAt(t, board, "Cần làm", 0)
	dst := createListAt(t, board, "Đang làm", 1)
	moving := createCardAt(t, src, "moving", 0, owner)
	createCardAt(t, dst, "x", 0, owner)

	moved, err := MoveCard(moving.ID, dst.ID, 99, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)

	moved, err = MoveCard(moved.ID, src.ID, -5, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
}

func TestMoveCardRejectsCrossBoardList(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	other := createBoard(t, owner)
	src := createListAt(t, board, "Cần làm", 0)
	foreign := createListAt(t, other, "Cần làm", 0)
	card := createCardAt(t, src, "a", 0, owner)

	_, err := MoveCard(card.ID, foreign.ID, 0, owner.ID)
	requireServiceError(t, err, KindInvalidTransition)
}

func TestTerminalMoveRequiresApproval(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)
	todo := createListAt(t, board, "Cần làm", 0)
	done := createListAt(t, board, "Hoàn thành", 1)
	card := createCardAt(t, todo, "feature", 0, owner)

	// Plain member, unapproved card: blocked at the terminal column.
	_, err := MoveCard(card.ID, done.ID, 0, member.ID)
	requireServiceError(t, err, KindForbidden)

	var unchanged models.KanbanCard
	require.NoError(t, database.DB.First(&unchanged, "id = ?", card.ID).Error)
	assert.Equal(t, todo.ID, unchanged.ListID)
	assert.False(t, unchanged.Completed)

	_, err = ApproveCard(card.ID, owner.ID)
	require.NoError(t, err)

	moved, err := MoveCard(card.ID, done.ID, 0, member.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, moved.ListID)
	assert.True(t, moved.Completed)
}

func TestTerminalMoveAdminBypass(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	admin := createUser(t, "admin")
	board := createBoard(t, owner)
	addBoardMember(t, board, admin, models.BoardRoleAdmin)
	todo := createListAt(t, board, "Cần làm", 0)
	done := createListAt(t, board, "Done", 1)
	card := createCardAt(t, todo, "feature", 0, owner)

	// Admins move unapproved cards straight through the gate.
	moved, err := MoveCard(card.ID, done.ID, 0, admin.ID)
	require.NoError(t, err)
	assert.True(t, moved.Completed)
}

func TestNonTerminalMoveIgnoresApproval(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)
	todo := createListAt(t, board, "Cần làm", 0)
	doing := createListAt(t, board, "Đang làm", 1)
	card := createCardAt(t, todo, "feature", 0, owner)

	moved, err := MoveCard(card.ID, doing.ID, 0, member.ID)
	require.NoError(t, err)
	assert.Equal(t, doing.ID, moved.ListID)
	assert.False(t, moved.Completed)
}

func TestApproveCard(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)
	todo := createListAt(t, board, "Cần làm", 0)
	card := createCardAt(t, todo, "feature", 0, owner)

	// A plain member who did not create the card cannot approve it.
	_, err := ApproveCard(card.ID, member.ID)
	requireServiceError(t, err, KindForbidden)

	approved, err := ApproveCard(card.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, owner.ID, *approved.ApprovedByID)
	require.NotNil(t, approved.ApprovedAt)

	_, err = ApproveCard(card.ID, owner.ID)
	requireServiceError(t, err, KindAlreadyDone)
}

func TestApproveCardNotifiesCreator(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)
	todo := createListAt(t, board, "Cần làm", 0)
	card := createCardAt(t, todo, "feature", 0, member)

	_, err := ApproveCard(card.ID, owner.ID)
	require.NoError(t, err)

	var ev models.OutboxEvent
	require.NoError(t, database.DB.Where("type = ?", NotifCardApproved).First(&ev).Error)
	assert.ElementsMatch(t, []string{member.ID.String()}, toStrings(ev.RecipientIDs()))
}

func TestBoardMembershipManagement(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	outsider := createUser(t, "outsider")
	board := createBoard(t, owner)

	_, err := AddBoardMember(board.ID, member.ID, models.BoardRoleMember, outsider.ID)
	requireServiceError(t, err, KindForbidden)

	added, err := AddBoardMember(board.ID, member.ID, "bogus-role", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BoardRoleMember, added.Role)

	// Adding again is a no-op returning the existing row.
	again, err := AddBoardMember(board.ID, member.ID, models.BoardRoleAdmin, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, again.ID)

	err = RemoveBoardMember(board.ID, owner.ID, owner.ID)
	requireServiceError(t, err, KindForbidden)

	require.NoError(t, RemoveBoardMember(board.ID, member.ID, owner.ID))
	err = RemoveBoardMember(board.ID, member.ID, owner.ID)
	requireServiceError(t, err, KindNotFound)
}

func TestDeleteBoardCascades(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	member := createUser(t, "member")
	board := createBoard(t, owner)
	addBoardMember(t, board, member, models.BoardRoleMember)
	list := createListAt(t, board, "Cần làm", 0)
	card := createCardAt(t, list, "feature", 0, owner)
	comment := models.CardComment{CardID: card.ID, UserID: owner.ID, Text: "looks good"}
	require.NoError(t, database.DB.Create(&comment).Error)

	err := DeleteBoard(board.ID, member.ID)
	requireServiceError(t, err, KindForbidden)

	require.NoError(t, DeleteBoard(board.ID, owner.ID))

	var count int64
	database.DB.Model(&models.KanbanList{}).Where("board_id = ?", board.ID).Count(&count)
	assert.EqualValues(t, 0, count)
	database.DB.Model(&models.KanbanCard{}).Where("id = ?", card.ID).Count(&count)
	assert.EqualValues(t, 0, count)
	database.DB.Model(&models.CardComment{}).Where("card_id = ?", card.ID).Count(&count)
	assert.EqualValues(t, 0, count)
	database.DB.Model(&models.KanbanBoardMember{}).Where("board_id = ?", board.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestAddChecklistItemPositions(t *testing.T) {
	setupTestDB(t)
	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	list := createListAt(t, board, "Cần làm", 0)
	card := createCardAt(t, list, "feature", 0, owner)

	first, err := AddChecklistItem(card.ID, "write tests", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)

	second, err := AddChecklistItem(card.ID, "ship it", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)
}

// stubStorage records deletes so board-delete cleanup can be observed.
type stubStorage struct {
	deleted []string
}

func (s *stubStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return key, nil
}

func (s *stubStorage) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubStorage) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://example.com/" + key, nil
}

func TestDeleteBoardRemovesStoredObjects(t *testing.T) {
	setupTestDB(t)
	stub := &stubStorage{}
	Store = stub
	t.Cleanup(func() { Store = nil })

	owner := createUser(t, "owner")
	board := createBoard(t, owner)
	list := createListAt(t, board, "Cần làm", 0)
	card := createCardAt(t, list, "feature", 0, owner)
	attachment := models.CardAttachment{
		CardID:     card.ID,
		UploaderID: owner.ID,
		FileName:   "design.pdf",
		ObjectKey:  "attachments/" + card.ID.String() + "/design.pdf",
	}
	require.NoError(t, database.DB.Create(&attachment).Error)

	require.NoError(t, DeleteBoard(board.ID, owner.ID))

	assert.Equal(t, []string{attachment.ObjectKey}, stub.deleted)
	var count int64
	database.DB.Model(&models.CardAttachment{}).Where("card_id = ?", card.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}
