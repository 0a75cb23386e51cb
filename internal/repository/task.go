package repository

import (
	"context"
	"errors"

	"taskboard/internal/cache"
	"taskboard/internal/middleware"
	"taskboard/internal/models"

	"gorm.io/gorm"
)

// TaskRepository defines persistence operations for tasks. Tasks of a column
// carry a dense 1..M position sequence. Moves and deletes run inside single
// transactions so the sequence stays dense even when a statement fails
// halfway through.
type TaskRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Task, error)
	ListByColumn(ctx context.Context, columnID uint) ([]models.Task, error)
	ListByAssignee(ctx context.Context, userID uint) ([]models.Task, error)
	ListByBoard(ctx context.Context, boardID uint, completed *bool) ([]models.Task, error)
	SearchByTitle(ctx context.Context, boardID uint, query string) ([]models.Task, error)
	StatsByBoard(ctx context.Context, boardID uint) (*models.TaskStats, error)
	NextPosition(ctx context.Context, columnID uint) (uint, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	MoveToPosition(ctx context.Context, taskID, newPosition uint) (*models.Task, error)
	MoveToColumn(ctx context.Context, taskID, targetColumnID, position uint) (*models.Task, error)
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, columnID uint) error
	ReplaceAssignees(ctx context.Context, taskID uint, userIDs []uint) error
	AddAssignee(ctx context.Context, taskID, userID uint) error
	RemoveAssignee(ctx context.Context, taskID, userID uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository returns a new TaskRepository implementation.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	err := readDB(r.db).WithContext(ctx).
		Preload("Column").
		Preload("Creator").
		Preload("Assignees").
		First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Task", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &task, nil
}

func (r *taskRepository) ListByColumn(ctx context.Context, columnID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := readDB(r.db).WithContext(ctx).
		Where("column_id = ?", columnID).
		Order("position ASC, id ASC").
		Preload("Assignees").
		Find(&tasks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tasks, nil
}

func (r *taskRepository) ListByAssignee(ctx context.Context, userID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN task_assignments ON task_assignments.task_id = tasks.id").
		Where("task_assignments.user_id = ?", userID).
		Order("tasks.created_at DESC").
		Preload("Column").
		Find(&tasks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tasks, nil
}

func (r *taskRepository) ListByBoard(ctx context.Context, boardID uint, completed *bool) ([]models.Task, error) {
	var tasks []models.Task
	q := readDB(r.db).WithContext(ctx).
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Where("columns.board_id = ? AND columns.deleted_at IS NULL", boardID).
		Order("tasks.column_id ASC, tasks.position ASC, tasks.id ASC").
		Preload("Assignees")
	if completed != nil {
		q = q.Where("tasks.completed = ?", *completed)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tasks, nil
}

func (r *taskRepository) SearchByTitle(ctx context.Context, boardID uint, query string) ([]models.Task, error) {
	var tasks []models.Task
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Where("columns.board_id = ? AND columns.deleted_at IS NULL", boardID).
		Where("LOWER(tasks.title) LIKE LOWER(?)", "%"+query+"%").
		Order("tasks.column_id ASC, tasks.position ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tasks, nil
}

func (r *taskRepository) StatsByBoard(ctx context.Context, boardID uint) (*models.TaskStats, error) {
	var stats models.TaskStats
	boardTasks := func() *gorm.DB {
		return readDB(r.db).WithContext(ctx).Model(&models.Task{}).
			Joins("JOIN columns ON columns.id = tasks.column_id").
			Where("columns.board_id = ? AND columns.deleted_at IS NULL", boardID)
	}
	if err := boardTasks().Count(&stats.Total).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := boardTasks().Where("tasks.completed = ?", true).Count(&stats.Completed).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}

// NextPosition returns max(position)+1 across the column's tasks, or 1 for
// an empty column.
func (r *taskRepository) NextPosition(ctx context.Context, columnID uint) (uint, error) {
	return nextTaskPosition(readDB(r.db).WithContext(ctx), columnID)
}

func nextTaskPosition(tx *gorm.DB, columnID uint) (uint, error) {
	var max uint
	err := tx.Model(&models.Task{}).
		Where("column_id = ?", columnID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return max + 1, nil
}

func columnBoardID(tx *gorm.DB, columnID uint) (uint, error) {
	var column models.Column
	if err := tx.Select("id", "board_id").First(&column, columnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, models.NewNotFoundError("Column", columnID)
		}
		return 0, models.NewInternalError(err)
	}
	return column.BoardID, nil
}

// Create inserts a task. Position zero means append at the tail of the
// column. An explicit position is clamped and the tasks at or after it are
// shifted right to open the slot.
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	var boardID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if boardID, err = columnBoardID(tx, task.ColumnID); err != nil {
			return err
		}
		next, err := nextTaskPosition(tx, task.ColumnID)
		if err != nil {
			return err
		}
		if task.Position == 0 || task.Position > next {
			task.Position = next
		}
		if task.Position < next {
			err := tx.Model(&models.Task{}).
				Where("column_id = ? AND position >= ?", task.ColumnID, task.Position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
			if err != nil {
				return err
			}
		}
		return tx.Omit("Assignees").Create(task).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateLayout(ctx, boardID)
	return nil
}

// Update persists title, description and completion. Position and column
// changes go through the move methods.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"completed":   task.Completed,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	r.invalidateTaskBoard(ctx, task.ColumnID)
	return nil
}

// MoveToPosition shifts the tasks between the old and the new slot by one and
// drops the moved task in, all inside one transaction.
func (r *taskRepository) MoveToPosition(ctx context.Context, taskID, newPosition uint) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Task", taskID)
			}
			return err
		}
		return moveTaskWithinColumn(tx, &task, newPosition)
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("task", "error").Inc()
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("task", "ok").Inc()
	r.invalidateTaskBoard(ctx, task.ColumnID)
	return &task, nil
}

func moveTaskWithinColumn(tx *gorm.DB, task *models.Task, newPosition uint) error {
	next, err := nextTaskPosition(tx, task.ColumnID)
	if err != nil {
		return err
	}
	if newPosition < 1 {
		newPosition = 1
	}
	if newPosition >= next {
		newPosition = next - 1
	}
	oldPosition := task.Position
	if newPosition == oldPosition {
		return nil
	}

	if newPosition > oldPosition {
		// Moving down: pull the tasks in (old, new] one slot up.
		err = tx.Model(&models.Task{}).
			Where("column_id = ? AND position > ? AND position <= ? AND id <> ?",
				task.ColumnID, oldPosition, newPosition, task.ID).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	} else {
		// Moving up: push the tasks in [new, old) one slot down.
		err = tx.Model(&models.Task{}).
			Where("column_id = ? AND position >= ? AND position < ? AND id <> ?",
				task.ColumnID, newPosition, oldPosition, task.ID).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
	}
	if err != nil {
		return err
	}

	task.Position = newPosition
	return tx.Model(task).UpdateColumn("position", newPosition).Error
}

// MoveToColumn moves a task into another column: the source column closes the
// hole the task leaves, the target column opens a slot at the requested
// position. Position zero appends at the target's tail, including when the
// target is the task's own column. Moving into the own column otherwise
// falls back to a plain position move.
func (r *taskRepository) MoveToColumn(ctx context.Context, taskID, targetColumnID, position uint) (*models.Task, error) {
	var task models.Task
	var boardID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Task", taskID)
			}
			return err
		}

		var err error
		if boardID, err = columnBoardID(tx, targetColumnID); err != nil {
			return err
		}

		if targetColumnID == task.ColumnID {
			// No explicit position resolves to the default append slot,
			// which for a task already in the column is its tail.
			if position == 0 {
				next, err := nextTaskPosition(tx, task.ColumnID)
				if err != nil {
					return err
				}
				position = next - 1
			}
			return moveTaskWithinColumn(tx, &task, position)
		}

		next, err := nextTaskPosition(tx, targetColumnID)
		if err != nil {
			return err
		}
		if position == 0 || position > next {
			position = next
		}

		// Close the hole in the source column.
		err = tx.Model(&models.Task{}).
			Where("column_id = ? AND position > ?", task.ColumnID, task.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return err
		}

		// Open the slot in the target column.
		if position < next {
			err = tx.Model(&models.Task{}).
				Where("column_id = ? AND position >= ?", targetColumnID, position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
			if err != nil {
				return err
			}
		}

		task.ColumnID = targetColumnID
		task.Position = position
		return tx.Model(&task).UpdateColumns(map[string]any{
			"column_id": targetColumnID,
			"position":  position,
		}).Error
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("task", "error").Inc()
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("task", "ok").Inc()
	cache.InvalidateLayout(ctx, boardID)
	return &task, nil
}

// Delete removes the task and its assignment edges, then renumbers the
// surviving tasks of the column back to a dense 1..M sequence.
func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	var columnID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Task", id)
			}
			return err
		}
		columnID = task.ColumnID
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&task).Error; err != nil {
			return err
		}
		return renumberTasks(tx, task.ColumnID)
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("task", "error").Inc()
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("task", "ok").Inc()
	r.invalidateTaskBoard(ctx, columnID)
	return nil
}

// Reorder rewrites the column's task positions to a dense 1..M sequence,
// preserving the current order.
func (r *taskRepository) Reorder(ctx context.Context, columnID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return renumberTasks(tx, columnID)
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("task", "error").Inc()
		return models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("task", "ok").Inc()
	r.invalidateTaskBoard(ctx, columnID)
	return nil
}

func renumberTasks(tx *gorm.DB, columnID uint) error {
	var tasks []models.Task
	err := tx.Where("column_id = ?", columnID).
		Order("position ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return err
	}
	for i, task := range tasks {
		want := uint(i + 1)
		if task.Position == want {
			continue
		}
		err := tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			UpdateColumn("position", want).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAssignees swaps the task's assignee set for the given users.
func (r *taskRepository) ReplaceAssignees(ctx context.Context, taskID uint, userIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Task", taskID)
			}
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
			return err
		}
		for _, userID := range userIDs {
			edge := models.TaskAssignment{TaskID: taskID, UserID: userID}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taskRepository) AddAssignee(ctx context.Context, taskID, userID uint) error {
	edge := models.TaskAssignment{TaskID: taskID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&edge).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User is already assigned to this task")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *taskRepository) RemoveAssignee(ctx context.Context, taskID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.TaskAssignment{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Task assignment", taskID)
	}
	return nil
}

func (r *taskRepository) invalidateTaskBoard(ctx context.Context, columnID uint) {
	if boardID, err := columnBoardID(r.db.WithContext(ctx), columnID); err == nil {
		cache.InvalidateLayout(ctx, boardID)
	}
}
