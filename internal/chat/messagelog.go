package chat

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"marketplace-app-server/internal/models"
)

// MessageLog appends messages to a thread and keeps the thread's cached
// summary in step with the newest message.
type MessageLog struct {
	db *gorm.DB
}

// NewMessageLog creates a message log backed by db.
func NewMessageLog(db *gorm.DB) *MessageLog {
	return &MessageLog{db: db}
}

// Append persists one message. The insert and the thread summary update run
// in a single transaction, so no reader observes one without the other. The
// assigned timestamp never moves backwards within a thread: it is bumped
// past the thread's previous activity when the clock would fall behind it.
func (l *MessageLog) Append(threadID, senderID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Reason: "content is required"}
	}

	var message models.Message
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.First(&thread, "id = ?", threadID).Error; err != nil {
			return err
		}
		if !thread.HasParticipant(senderID) {
			return &ValidationError{Reason: "sender is not a participant of this conversation"}
		}

		at := time.Now()
		if !at.After(thread.LastActivityAt) {
			at = thread.LastActivityAt.Add(time.Millisecond)
		}

		message = models.Message{
			BaseModel: models.BaseModel{CreatedAt: at, UpdatedAt: at},
			ThreadID:  thread.ID,
			SenderID:  senderID,
			Content:   content,
		}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		return tx.Model(&thread).Updates(map[string]interface{}{
			"last_message":     content,
			"last_activity_at": at,
		}).Error
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		return nil, &StorageError{Op: "append message", Err: err}
	}
	return &message, nil
}

// History returns a thread's messages in append order.
func (l *MessageLog) History(threadID string) ([]models.Message, error) {
	var messages []models.Message
	err := l.db.Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, &StorageError{Op: "fetch history", Err: err}
	}
	return messages, nil
}
