package repository

import (
	"context"
	"testing"

	"taskboard/internal/database"
	"taskboard/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh in-memory SQLite database with the full schema.
// The position-shift tests need real SQL semantics, so they run against
// SQLite instead of sqlmock.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test", Email: email, Password: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestBoard goes through the repository so the board arrives with its
// default columns, exactly like production boards do.
func createTestBoard(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Board {
	t.Helper()
	board := &models.Board{Name: name, CreatedBy: ownerID}
	require.NoError(t, NewBoardRepository(db).Create(context.Background(), board))
	return board
}

func createTestTask(t *testing.T, db *gorm.DB, columnID, creatorID uint, title string) *models.Task {
	t.Helper()
	task := &models.Task{ColumnID: columnID, CreatedBy: creatorID, Title: title}
	require.NoError(t, NewTaskRepository(db).Create(context.Background(), task))
	return task
}

// columnPositions returns title->position for the column's tasks, plus the
// ordered titles, so tests can assert both density and order in one call.
func taskOrder(t *testing.T, db *gorm.DB, columnID uint) []string {
	t.Helper()
	var tasks []models.Task
	require.NoError(t, db.Where("column_id = ?", columnID).Order("position ASC, id ASC").Find(&tasks).Error)
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		require.Equal(t, uint(i+1), task.Position, "positions must stay dense 1..N")
		titles[i] = task.Title
	}
	return titles
}

func columnOrder(t *testing.T, db *gorm.DB, boardID uint) []string {
	t.Helper()
	var columns []models.Column
	require.NoError(t, db.Where("board_id = ?", boardID).Order("position ASC, id ASC").Find(&columns).Error)
	names := make([]string, len(columns))
	for i, col := range columns {
		require.Equal(t, uint(i+1), col.Position, "positions must stay dense 1..N")
		names[i] = col.Name
	}
	return names
}
