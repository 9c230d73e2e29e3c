package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-app-server/internal/models"
)

// newTestDB opens a private in-memory database with the full schema. A
// single pooled connection keeps the in-memory database alive and serializes
// writers the way a real server's store would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	req := require.New(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	req.NoError(err)

	sqlDB, err := db.DB()
	req.NoError(err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	req.NoError(models.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, fullName, userName string) *models.User {
	t.Helper()
	user := &models.User{
		FullName:    fullName,
		UserName:    userName,
		Email:       userName + "@example.edu",
		StudentID:   "sid-" + userName,
		PhoneNumber: "555-" + userName,
	}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(user).Error)
	return user
}
