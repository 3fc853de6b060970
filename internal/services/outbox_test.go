package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func enqueueTestEvent(t *testing.T, actor uuid.UUID, recipients ...uuid.UUID) *models.OutboxEvent {
	t.Helper()
	ev := models.OutboxEvent{
		ActorID:   actor,
		Type:      NotifCardMoved,
		Title:     "Card completed",
		Body:      "a card reached the done column",
		EventName: "card:moved",
	}
	if recipients == nil {
		recipients = []uuid.UUID{}
	}
	ev.SetRecipients(recipients)
	require.NoError(t, database.DB.Transaction(func(tx *gorm.DB) error {
		return Enqueue(tx, &ev)
	}))
	return &ev
}

func TestEnqueueRollsBackWithTransaction(t *testing.T) {
	setupTestDB(t)
	actor := createUser(t, "actor")

	boom := errors.New("state change failed")
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		ev := models.OutboxEvent{
			ActorID:   actor.ID,
			Type:      NotifCardMoved,
			Title:     "never delivered",
			EventName: "card:moved",
		}
		ev.SetRecipients([]uuid.UUID{actor.ID})
		if err := Enqueue(tx, &ev); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The event dies with the transaction that produced it.
	var count int64
	database.DB.Model(&models.OutboxEvent{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestProcessOnceDeliversNotifications(t *testing.T) {
	setupTestDB(t)
	actor := createUser(t, "actor")
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")

	ev := enqueueTestEvent(t, actor.ID, alice.ID, bob.ID)

	w := NewOutboxWorker()
	require.NoError(t, w.ProcessOnce())

	var delivered models.OutboxEvent
	require.NoError(t, database.DB.First(&delivered, "id = ?", ev.ID).Error)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, 1, delivered.Attempts)

	// One persisted notification per recipient, none for the actor.
	var notifs []models.Notification
	require.NoError(t, database.DB.Find(&notifs).Error)
	require.Len(t, notifs, 2)
	recipients := []string{notifs[0].UserID.String(), notifs[1].UserID.String()}
	assert.ElementsMatch(t, []string{alice.ID.String(), bob.ID.String()}, recipients)
	for _, n := range notifs {
		assert.Equal(t, NotifCardMoved, n.Type)
		assert.Equal(t, "Card completed", n.Title)
		assert.False(t, n.Read)
	}
}

func TestProcessOnceSkipsDeliveredEvents(t *testing.T) {
	setupTestDB(t)
	actor := createUser(t, "actor")
	alice := createUser(t, "alice")

	enqueueTestEvent(t, actor.ID, alice.ID)

	w := NewOutboxWorker()
	require.NoError(t, w.ProcessOnce())
	require.NoError(t, w.ProcessOnce())

	// A delivered event is never picked up again.
	var count int64
	database.DB.Model(&models.Notification{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestProcessOnceRespectsAttemptCap(t *testing.T) {
	setupTestDB(t)
	actor := createUser(t, "actor")

	ev := models.OutboxEvent{
		ActorID:    actor.ID,
		Type:       NotifCardMoved,
		Title:      "poisoned",
		EventName:  "card:moved",
		Recipients: "not-json",
		Attempts:   outboxMaxAttempts,
	}
	require.NoError(t, database.DB.Create(&ev).Error)

	w := NewOutboxWorker()
	require.NoError(t, w.ProcessOnce())

	var after models.OutboxEvent
	require.NoError(t, database.DB.First(&after, "id = ?", ev.ID).Error)
	assert.Equal(t, outboxMaxAttempts, after.Attempts)
	assert.Nil(t, after.DeliveredAt)
}

func TestUndecodableRecipientsRecordsFailure(t *testing.T) {
	setupTestDB(t)
	actor := createUser(t, "actor")

	ev := models.OutboxEvent{
		ActorID:    actor.ID,
		Type:       NotifCardMoved,
		Title:      "poisoned",
		EventName:  "card:moved",
		Recipients: "not-json",
	}
	require.NoError(t, database.DB.Create(&ev).Error)

	w := NewOutboxWorker()
	require.NoError(t, w.ProcessOnce())

	var after models.OutboxEvent
	require.NoError(t, database.DB.First(&after, "id = ?", ev.ID).Error)
	assert.Equal(t, 1, after.Attempts)
	assert.Nil(t, after.DeliveredAt)
	require.NotNil(t, after.LastError)
}

func TestEmptyRecipientSetDeliversCleanly(t *testing.T) {
	setupTestDB(t)
	actor := createUser(t, "actor")

	ev := enqueueTestEvent(t, actor.ID)

	w := NewOutboxWorker()
	require.NoError(t, w.ProcessOnce())

	var after models.OutboxEvent
	require.NoError(t, database.DB.First(&after, "id = ?", ev.ID).Error)
	require.NotNil(t, after.DeliveredAt)

	var count int64
	database.DB.Model(&models.Notification{}).Count(&count)
	assert.EqualValues(t, 0, count)
}
