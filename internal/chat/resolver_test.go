package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace-app-server/internal/models"
)

func Test_Resolve_Creates_Thread_On_First_Contact(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	resolver := NewThreadResolver(db)

	thread, err := resolver.Resolve("user-b", "user-a")
	req.NoError(err)
	req.NotEmpty(thread.ID)
	// Participants are stored in canonical order regardless of send direction.
	req.Equal("user-a", thread.ParticipantA)
	req.Equal("user-b", thread.ParticipantB)

	var count int64
	req.NoError(db.Model(&models.Thread{}).Count(&count).Error)
	req.EqualValues(1, count)
}

func Test_Resolve_Both_Directions_Yield_Same_Thread(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	resolver := NewThreadResolver(db)

	first, err := resolver.Resolve("user-a", "user-b")
	req.NoError(err)
	second, err := resolver.Resolve("user-b", "user-a")
	req.NoError(err)

	req.Equal(first.ID, second.ID)

	var count int64
	req.NoError(db.Model(&models.Thread{}).Count(&count).Error)
	req.EqualValues(1, count)
}

func Test_Resolve_Rejects_Self_Conversation(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	resolver := NewThreadResolver(db)

	thread, err := resolver.Resolve("user-a", "user-a")
	req.Nil(thread)

	var verr *ValidationError
	req.ErrorAs(err, &verr)

	var count int64
	req.NoError(db.Model(&models.Thread{}).Count(&count).Error)
	req.EqualValues(0, count)
}

// A competing create lands between the resolver's lookup and its own create.
// The resolver must swallow the uniqueness conflict and converge on the
// winner's thread.
func Test_Resolve_Converges_After_Losing_Create_Race(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	resolver := NewThreadResolver(db)

	winnerID := uuid.New().String()
	var once sync.Once
	err := db.Callback().Create().Before("gorm:create").Register("test:competing_create", func(tx *gorm.DB) {
		if tx.Statement.Table != "threads" {
			return
		}
		once.Do(func() {
			now := time.Now()
			db.Exec(
				"INSERT INTO threads (id, created_at, updated_at, participant_a, participant_b, last_message, last_activity_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
				winnerID, now, now, "user-a", "user-b", "", now,
			)
		})
	})
	req.NoError(err)

	thread, err := resolver.Resolve("user-a", "user-b")
	req.NoError(err)
	req.Equal(winnerID, thread.ID)

	var count int64
	req.NoError(db.Model(&models.Thread{}).Count(&count).Error)
	req.EqualValues(1, count)
}

func Test_Resolve_Concurrent_First_Contact(t *testing.T) {
	req := require.New(t)
	db := newTestDB(t)
	resolver := NewThreadResolver(db)

	var wg sync.WaitGroup
	results := make([]*models.Thread, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 0 {
				results[i], errs[i] = resolver.Resolve("user-a", "user-b")
			} else {
				results[i], errs[i] = resolver.Resolve("user-b", "user-a")
			}
		}(i)
	}
	wg.Wait()

	req.NoError(errs[0])
	req.NoError(errs[1])
	req.Equal(results[0].ID, results[1].ID)

	var count int64
	req.NoError(db.Model(&models.Thread{}).Count(&count).Error)
	req.EqualValues(1, count)
}
