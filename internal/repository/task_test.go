package repository

import (
	"context"
	"errors"
	"testing"

	"taskboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_CreateAppendsAndInserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	todo := board.Columns[1]

	createTestTask(t, db, todo.ID, owner.ID, "a")
	createTestTask(t, db, todo.ID, owner.ID, "b")
	createTestTask(t, db, todo.ID, owner.ID, "c")
	assert.Equal(t, []string{"a", "b", "c"}, taskOrder(t, db, todo.ID))

	// Explicit position opens a slot and shifts the tail right.
	require.NoError(t, repo.Create(ctx, &models.Task{ColumnID: todo.ID, CreatedBy: owner.ID, Title: "x", Position: 2}))
	assert.Equal(t, []string{"a", "x", "b", "c"}, taskOrder(t, db, todo.ID))

	// A position past the tail is clamped to an append.
	require.NoError(t, repo.Create(ctx, &models.Task{ColumnID: todo.ID, CreatedBy: owner.ID, Title: "z", Position: 77}))
	assert.Equal(t, []string{"a", "x", "b", "c", "z"}, taskOrder(t, db, todo.ID))
}

func TestTaskRepository_CreateUnknownColumn(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	err := repo.Create(context.Background(), &models.Task{ColumnID: 9999, CreatedBy: 1, Title: "orphan"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestTaskRepository_MoveToPosition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	todo := board.Columns[1]

	a := createTestTask(t, db, todo.ID, owner.ID, "a")
	createTestTask(t, db, todo.ID, owner.ID, "b")
	createTestTask(t, db, todo.ID, owner.ID, "c")
	d := createTestTask(t, db, todo.ID, owner.ID, "d")

	t.Run("move down", func(t *testing.T) {
		moved, err := repo.MoveToPosition(ctx, a.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, uint(3), moved.Position)
		assert.Equal(t, []string{"b", "c", "a", "d"}, taskOrder(t, db, todo.ID))
	})

	t.Run("move up", func(t *testing.T) {
		moved, err := repo.MoveToPosition(ctx, d.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, uint(1), moved.Position)
		assert.Equal(t, []string{"d", "b", "c", "a"}, taskOrder(t, db, todo.ID))
	})

	t.Run("zero clamps to the head", func(t *testing.T) {
		moved, err := repo.MoveToPosition(ctx, a.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, uint(1), moved.Position)
		assert.Equal(t, []string{"a", "d", "b", "c"}, taskOrder(t, db, todo.ID))
	})
}

func TestTaskRepository_MoveToColumn(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	todo, doing := board.Columns[1], board.Columns[2]

	a := createTestTask(t, db, todo.ID, owner.ID, "a")
	b := createTestTask(t, db, todo.ID, owner.ID, "b")
	createTestTask(t, db, todo.ID, owner.ID, "c")
	createTestTask(t, db, doing.ID, owner.ID, "x")
	createTestTask(t, db, doing.ID, owner.ID, "y")

	t.Run("append to target by default", func(t *testing.T) {
		moved, err := repo.MoveToColumn(ctx, b.ID, doing.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, doing.ID, moved.ColumnID)
		assert.Equal(t, uint(3), moved.Position)

		// Source closes the hole, target gets the task at the tail.
		assert.Equal(t, []string{"a", "c"}, taskOrder(t, db, todo.ID))
		assert.Equal(t, []string{"x", "y", "b"}, taskOrder(t, db, doing.ID))
	})

	t.Run("explicit slot in target", func(t *testing.T) {
		moved, err := repo.MoveToColumn(ctx, b.ID, todo.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, todo.ID, moved.ColumnID)
		assert.Equal(t, uint(1), moved.Position)

		assert.Equal(t, []string{"b", "a", "c"}, taskOrder(t, db, todo.ID))
		assert.Equal(t, []string{"x", "y"}, taskOrder(t, db, doing.ID))
	})

	t.Run("own column falls back to a position move", func(t *testing.T) {
		moved, err := repo.MoveToColumn(ctx, b.ID, todo.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, uint(3), moved.Position)
		assert.Equal(t, []string{"a", "c", "b"}, taskOrder(t, db, todo.ID))
	})

	t.Run("own column with no position appends at the tail", func(t *testing.T) {
		moved, err := repo.MoveToColumn(ctx, a.ID, todo.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, uint(3), moved.Position)
		assert.Equal(t, []string{"c", "b", "a"}, taskOrder(t, db, todo.ID))
	})

	t.Run("unknown target column", func(t *testing.T) {
		_, err := repo.MoveToColumn(ctx, b.ID, 9999, 0)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestTaskRepository_DeleteRenumbersAndClearsAssignments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	helper := createTestUser(t, db, "helper@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	todo := board.Columns[1]

	createTestTask(t, db, todo.ID, owner.ID, "a")
	b := createTestTask(t, db, todo.ID, owner.ID, "b")
	createTestTask(t, db, todo.ID, owner.ID, "c")
	require.NoError(t, repo.AddAssignee(ctx, b.ID, helper.ID))

	require.NoError(t, repo.Delete(ctx, b.ID))

	assert.Equal(t, []string{"a", "c"}, taskOrder(t, db, todo.ID))

	var edges int64
	require.NoError(t, db.Model(&models.TaskAssignment{}).Where("task_id = ?", b.ID).Count(&edges).Error)
	assert.Zero(t, edges, "assignment edges must die with the task")
}

func TestTaskRepository_Assignees(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	task := createTestTask(t, db, board.Columns[1].ID, owner.ID, "shared work")

	require.NoError(t, repo.AddAssignee(ctx, task.ID, alice.ID))

	err := repo.AddAssignee(ctx, task.ID, alice.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	require.NoError(t, repo.ReplaceAssignees(ctx, task.ID, []uint{alice.ID, bob.ID}))
	loaded, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Assignees, 2)

	require.NoError(t, repo.RemoveAssignee(ctx, task.ID, alice.ID))
	err = repo.RemoveAssignee(ctx, task.ID, alice.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	mine, err := repo.ListByAssignee(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, task.ID, mine[0].ID)
}

func TestTaskRepository_BoardQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	todo, doing := board.Columns[1], board.Columns[2]

	createTestTask(t, db, todo.ID, owner.ID, "write docs")
	done := createTestTask(t, db, doing.ID, owner.ID, "ship release")
	done.Completed = true
	require.NoError(t, repo.Update(ctx, done))

	all, err := repo.ListByBoard(ctx, board.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := true
	finished, err := repo.ListByBoard(ctx, board.ID, &completed)
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, "ship release", finished[0].Title)

	found, err := repo.SearchByTitle(ctx, board.ID, "SHIP")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, done.ID, found[0].ID)

	stats, err := repo.StatsByBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestTaskRepository_ReorderRepairsHoles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	board := createTestBoard(t, db, owner.ID, "Sprint")
	todo := board.Columns[1]

	createTestTask(t, db, todo.ID, owner.ID, "a")
	createTestTask(t, db, todo.ID, owner.ID, "b")
	createTestTask(t, db, todo.ID, owner.ID, "c")

	for _, p := range []uint{2, 3} {
		require.NoError(t, db.Model(&models.Task{}).
			Where("column_id = ? AND position = ?", todo.ID, p).
			UpdateColumn("position", p*10).Error)
	}

	require.NoError(t, repo.Reorder(ctx, todo.ID))
	assert.Equal(t, []string{"a", "b", "c"}, taskOrder(t, db, todo.ID))
}

// A failed shift must roll back the whole move: the task keeps its old
// position and no sibling is left half-shifted.
func TestTaskRepository_MoveRollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "column_id", "position"}).AddRow(7, 2, 1))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec(`UPDATE "tasks" SET "position"=position - 1`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.MoveToPosition(context.Background(), 7, 3)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "transaction must be rolled back, not committed")
}
