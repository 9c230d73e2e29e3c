package chat

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"marketplace-app-server/internal/models"
)

// Contact is one row of a user's conversation list: the counterpart plus the
// thread's cached summary.
type Contact struct {
	ID              string    `json:"id"`
	FullName        string    `json:"fullName"`
	UserName        string    `json:"userName"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	ThreadID        string    `json:"threadId"`
}

// ContactListProjector derives, for a user, the people they have threads
// with, ordered by most recent activity.
type ContactListProjector struct {
	db *gorm.DB
}

// NewContactListProjector creates a projector backed by db.
func NewContactListProjector(db *gorm.DB) *ContactListProjector {
	return &ContactListProjector{db: db}
}

// ContactsFor lists the counterpart of every thread involving userID, newest
// activity first, thread ID as a deterministic tiebreak. Threads whose
// counterpart cannot be established (degenerate participant data, a deleted
// user) are skipped rather than surfaced with a hole.
func (p *ContactListProjector) ContactsFor(userID string) ([]Contact, error) {
	var threads []models.Thread
	err := p.db.Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_activity_at DESC, id ASC").
		Find(&threads).Error
	if err != nil {
		return nil, &StorageError{Op: "list threads", Err: err}
	}

	counterpartIDs := make([]string, 0, len(threads))
	for _, thread := range threads {
		if other := thread.OtherParticipant(userID); other != "" {
			counterpartIDs = append(counterpartIDs, other)
		}
	}

	var users []models.User
	if len(counterpartIDs) > 0 {
		if err := p.db.Where("id IN ?", counterpartIDs).Find(&users).Error; err != nil {
			return nil, &StorageError{Op: "load counterparts", Err: err}
		}
	}
	byID := lo.KeyBy(users, func(u models.User) string { return u.ID })

	contacts := make([]Contact, 0, len(threads))
	for _, thread := range threads {
		other := thread.OtherParticipant(userID)
		if other == "" {
			continue
		}
		user, ok := byID[other]
		if !ok {
			continue
		}
		lastMessage := thread.LastMessage
		if lastMessage == "" {
			lastMessage = "No messages yet"
		}
		contacts = append(contacts, Contact{
			ID:              user.ID,
			FullName:        user.FullName,
			UserName:        user.UserName,
			LastMessage:     lastMessage,
			LastMessageTime: thread.LastActivityAt,
			ThreadID:        thread.ID,
		})
	}
	return contacts, nil
}
