package repository

import (
	"context"
	"errors"

	"taskboard/internal/cache"
	"taskboard/internal/middleware"
	"taskboard/internal/models"

	"gorm.io/gorm"
)

// ColumnRepository defines persistence operations for board columns.
// Columns of a board carry a dense 1..N position sequence; every write that
// touches positions runs inside a single transaction so a failed shift never
// leaves holes behind.
type ColumnRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Column, error)
	ListByBoard(ctx context.Context, boardID uint) ([]models.Column, error)
	FindByName(ctx context.Context, boardID uint, name string) (*models.Column, error)
	NextPosition(ctx context.Context, boardID uint) (uint, error)
	Create(ctx context.Context, column *models.Column) error
	Update(ctx context.Context, column *models.Column) error
	MoveToPosition(ctx context.Context, columnID, newPosition uint) (*models.Column, error)
	Delete(ctx context.Context, id uint) error
	Reorder(ctx context.Context, boardID uint) error
}

type columnRepository struct {
	db *gorm.DB
}

// NewColumnRepository returns a new ColumnRepository implementation.
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &columnRepository{db: db}
}

func (r *columnRepository) GetByID(ctx context.Context, id uint) (*models.Column, error) {
	var column models.Column
	if err := readDB(r.db).WithContext(ctx).First(&column, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Column", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &column, nil
}

func (r *columnRepository) ListByBoard(ctx context.Context, boardID uint) ([]models.Column, error) {
	var columns []models.Column
	err := readDB(r.db).WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position ASC, id ASC").
		Find(&columns).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return columns, nil
}

func (r *columnRepository) FindByName(ctx context.Context, boardID uint, name string) (*models.Column, error) {
	var column models.Column
	err := readDB(r.db).WithContext(ctx).
		Where("board_id = ? AND name = ?", boardID, name).
		First(&column).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &column, nil
}

// NextPosition returns max(position)+1 across the board's live columns, or 1
// for an empty board.
func (r *columnRepository) NextPosition(ctx context.Context, boardID uint) (uint, error) {
	return nextColumnPosition(readDB(r.db).WithContext(ctx), boardID)
}

func nextColumnPosition(tx *gorm.DB, boardID uint) (uint, error) {
	var max uint
	err := tx.Model(&models.Column{}).
		Where("board_id = ?", boardID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return max + 1, nil
}

// Create inserts a column. Position zero means append at the end. An explicit
// position is clamped to the tail and the columns at or after it are shifted
// right to open the slot.
func (r *columnRepository) Create(ctx context.Context, column *models.Column) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextColumnPosition(tx, column.BoardID)
		if err != nil {
			return err
		}
		if column.Position == 0 || column.Position > next {
			column.Position = next
		}
		if column.Position < next {
			err := tx.Model(&models.Column{}).
				Where("board_id = ? AND position >= ?", column.BoardID, column.Position).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(column).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateLayout(ctx, column.BoardID)
	return nil
}

func (r *columnRepository) Update(ctx context.Context, column *models.Column) error {
	if err := r.db.WithContext(ctx).Save(column).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateLayout(ctx, column.BoardID)
	return nil
}

// MoveToPosition shifts the columns between the old and the new slot by one
// and drops the moved column in. The whole move is a single transaction.
func (r *columnRepository) MoveToPosition(ctx context.Context, columnID, newPosition uint) (*models.Column, error) {
	var column models.Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&column, columnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Column", columnID)
			}
			return err
		}
		next, err := nextColumnPosition(tx, column.BoardID)
		if err != nil {
			return err
		}
		if newPosition < 1 {
			newPosition = 1
		}
		if newPosition >= next {
			newPosition = next - 1
		}
		oldPosition := column.Position
		if newPosition == oldPosition {
			return nil
		}

		if newPosition > oldPosition {
			// Moving right: pull the columns in (old, new] one slot left.
			err = tx.Model(&models.Column{}).
				Where("board_id = ? AND position > ? AND position <= ? AND id <> ?",
					column.BoardID, oldPosition, newPosition, column.ID).
				UpdateColumn("position", gorm.Expr("position - 1")).Error
		} else {
			// Moving left: push the columns in [new, old) one slot right.
			err = tx.Model(&models.Column{}).
				Where("board_id = ? AND position >= ? AND position < ? AND id <> ?",
					column.BoardID, newPosition, oldPosition, column.ID).
				UpdateColumn("position", gorm.Expr("position + 1")).Error
		}
		if err != nil {
			return err
		}

		column.Position = newPosition
		return tx.Model(&column).UpdateColumn("position", newPosition).Error
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("column", "error").Inc()
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("column", "ok").Inc()
	cache.InvalidateLayout(ctx, column.BoardID)
	return &column, nil
}

// Delete soft-deletes the column and renumbers the board's surviving columns
// back to a dense 1..N sequence.
func (r *columnRepository) Delete(ctx context.Context, id uint) error {
	var boardID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var column models.Column
		if err := tx.First(&column, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Column", id)
			}
			return err
		}
		boardID = column.BoardID
		if err := tx.Delete(&column).Error; err != nil {
			return err
		}
		return renumberColumns(tx, column.BoardID)
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("column", "error").Inc()
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("column", "ok").Inc()
	cache.InvalidateLayout(ctx, boardID)
	return nil
}

// Reorder rewrites the board's column positions to a dense 1..N sequence,
// preserving the current order. Useful as a repair after manual data edits.
func (r *columnRepository) Reorder(ctx context.Context, boardID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return renumberColumns(tx, boardID)
	})
	if err != nil {
		middleware.PositionShifts.WithLabelValues("column", "error").Inc()
		return models.NewInternalError(err)
	}
	middleware.PositionShifts.WithLabelValues("column", "ok").Inc()
	cache.InvalidateLayout(ctx, boardID)
	return nil
}

func renumberColumns(tx *gorm.DB, boardID uint) error {
	var columns []models.Column
	err := tx.Where("board_id = ?", boardID).
		Order("position ASC, id ASC").
		Find(&columns).Error
	if err != nil {
		return err
	}
	for i, col := range columns {
		want := uint(i + 1)
		if col.Position == want {
			continue
		}
		err := tx.Model(&models.Column{}).
			Where("id = ?", col.ID).
			UpdateColumn("position", want).Error
		if err != nil {
			return err
		}
	}
	return nil
}
