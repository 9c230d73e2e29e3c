package models

import (
	"time"
)

// Thread is the single conversation record for a pair of users. The two
// participant columns always hold the canonical (ascending) order of the
// pair, so the composite unique index guarantees at most one thread per
// unordered pair of users.
type Thread struct {
	BaseModel
	ParticipantA   string    `gorm:"size:36;not null;uniqueIndex:idx_thread_pair,priority:1" json:"participantA"`
	ParticipantB   string    `gorm:"size:36;not null;uniqueIndex:idx_thread_pair,priority:2" json:"participantB"`
	LastMessage    string    `gorm:"type:text" json:"lastMessage"`
	LastActivityAt time.Time `gorm:"index" json:"lastActivityAt"`

	// Relations
	Messages []Message `gorm:"foreignKey:ThreadID" json:"-"`
}

// CanonicalPair returns the two user IDs in their canonical storage order.
func CanonicalPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

// HasParticipant reports whether userID is one of the thread's two participants.
func (t *Thread) HasParticipant(userID string) bool {
	return t.ParticipantA == userID || t.ParticipantB == userID
}

// OtherParticipant returns the counterpart of userID in this thread, or ""
// when userID is not a participant or the thread is degenerate (both
// participant columns holding the same user).
func (t *Thread) OtherParticipant(userID string) string {
	if t.ParticipantA == t.ParticipantB {
		return ""
	}
	switch userID {
	case t.ParticipantA:
		return t.ParticipantB
	case t.ParticipantB:
		return t.ParticipantA
	}
	return ""
}
