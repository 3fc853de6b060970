package services

import (
	"fmt"
	"log"
	"time"

	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/models"
	"github.com/ngocminh/workpoint-api/internal/realtime"
	"gorm.io/gorm"
)

// Outbox delivery limits.
const (
	outboxMaxAttempts  = 5
	outboxPollInterval = 2 * time.Second
	outboxBatchSize    = 50
)

// Enqueue writes a fan-out event inside the caller's transaction, so the
// event commits or rolls back together with the state change it announces.
func Enqueue(tx *gorm.DB, ev *models.OutboxEvent) error {
	return tx.Create(ev).Error
}

// OutboxWorker delivers pending events: one persisted notification per
// recipient, a push, and a socket emit. Failures never touch the
// originating state change; the event is retried up to outboxMaxAttempts.
type OutboxWorker struct {
	stop chan struct{}
}

func NewOutboxWorker() *OutboxWorker {
	return &OutboxWorker{stop: make(chan struct{})}
}

// Start runs the polling loop until Stop is called.
func (w *OutboxWorker) Start() {
	go func() {
		ticker := time.NewTicker(outboxPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				if err := w.ProcessOnce(); err != nil {
					log.Printf("outbox: process error: %v", err)
				}
			}
		}
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
}

// ProcessOnce delivers one batch of pending events.
func (w *OutboxWorker) ProcessOnce() error {
	var events []models.OutboxEvent
	if err := database.DB.
		Where("delivered_at IS NULL AND attempts < ?", outboxMaxAttempts).
		Order("created_at ASC").
		Limit(outboxBatchSize).
		Find(&events).Error; err != nil {
		return err
	}

	for i := range events {
		w.deliver(&events[i])
	}
	return nil
}

func (w *OutboxWorker) deliver(ev *models.OutboxEvent) {
	if err := w.fanOut(ev); err != nil {
		msg := err.Error()
		log.Printf("outbox: event %s attempt %d failed: %v", ev.ID, ev.Attempts+1, err)
		database.DB.Model(ev).Updates(map[string]interface{}{
			"attempts":   ev.Attempts + 1,
			"last_error": msg,
		})
		return
	}

	now := time.Now()
	database.DB.Model(ev).Updates(map[string]interface{}{
		"attempts":     ev.Attempts + 1,
		"delivered_at": now,
	})
}

// fanOut performs the three delivery channels for every recipient. The
// recipient set was computed (and the actor excluded) at enqueue time.
// Notification rows are written in one transaction so a retried event
// never persists a recipient's notification twice; push and socket are
// best-effort after commit.
func (w *OutboxWorker) fanOut(ev *models.OutboxEvent) error {
	recipients := ev.RecipientIDs()
	if recipients == nil && ev.Recipients != "" {
		return fmt.Errorf("undecodable recipient set")
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, userID := range recipients {
			notif := models.Notification{
				UserID:   userID,
				Type:     ev.Type,
				Title:    ev.Title,
				Body:     ev.Body,
				Metadata: ev.Metadata,
			}
			if err := tx.Create(&notif).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	payload := map[string]interface{}{
		"type":  ev.Type,
		"title": ev.Title,
		"body":  ev.Body,
	}
	if ev.Metadata != nil {
		payload["metadata"] = *ev.Metadata
	}

	for _, userID := range recipients {
		if Push != nil {
			Push.SendToUser(userID, ev.Title, ev.Body, map[string]string{"type": ev.Type})
		}
		realtime.WS.EmitToUser(userID, realtime.Event{
			Type:   realtime.EventNotification,
			UserID: ev.ActorID.String(),
			Data:   payload,
		})
	}
	return nil
}
