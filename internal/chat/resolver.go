package chat

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"marketplace-app-server/internal/models"
)

// maxResolveAttempts bounds the conflict-and-retry loop. One retry is enough
// to converge after losing a first-contact race; the margin covers a lookup
// racing a rolled-back create.
const maxResolveAttempts = 3

// ThreadResolver maps an unordered pair of users to its single canonical
// thread, creating the thread on first contact.
type ThreadResolver struct {
	db *gorm.DB
}

// NewThreadResolver creates a resolver backed by db.
func NewThreadResolver(db *gorm.DB) *ThreadResolver {
	return &ThreadResolver{db: db}
}

// Resolve returns the thread between userA and userB, creating it if this is
// their first contact. Two connections can race the first-contact create
// from either direction; the loser hits the unique index on the canonical
// pair, discards its create, and re-runs the lookup. Both directions always
// converge on one thread ID.
func (r *ThreadResolver) Resolve(userA, userB string) (*models.Thread, error) {
	if userA == userB {
		return nil, &ValidationError{Reason: "cannot start a conversation with yourself"}
	}

	first, second := models.CanonicalPair(userA, userB)

	var lastErr error
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		var thread models.Thread
		err := r.db.Where("participant_a = ? AND participant_b = ?", first, second).
			First(&thread).Error
		if err == nil {
			return &thread, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &StorageError{Op: "lookup thread", Err: err}
		}

		thread = models.Thread{
			ParticipantA:   first,
			ParticipantB:   second,
			LastActivityAt: time.Now(),
		}
		err = r.db.Create(&thread).Error
		if err == nil {
			return &thread, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the first-contact race; the winner's thread is there now.
			lastErr = err
			continue
		}
		return nil, &StorageError{Op: "create thread", Err: err}
	}
	return nil, &StorageError{Op: "resolve thread", Err: lastErr}
}
