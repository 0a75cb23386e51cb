package database

import (
	"testing"
	"time"

	"taskboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestMigrate_CreatesSchema(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "boards", "columns", "tasks", "board_shares", "task_assignments"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.BoardShare{}, "shared_at"))
}

func TestMigrate_SharingEdgeCarriesTimestamp(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	owner := models.User{Name: "owner", Email: "owner@example.com", Password: "x"}
	guest := models.User{Name: "guest", Email: "guest@example.com", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&guest).Error)

	board := models.Board{Name: "release plan", CreatedBy: owner.ID}
	require.NoError(t, db.Create(&board).Error)

	require.NoError(t, db.Model(&board).Association("SharedUsers").Append(&guest))

	var share models.BoardShare
	require.NoError(t, db.Where("board_id = ? AND user_id = ?", board.ID, guest.ID).First(&share).Error)
	assert.WithinDuration(t, time.Now(), share.SharedAt, time.Minute)
}
