package repository

import (
	"context"
	"errors"

	"taskboard/internal/cache"
	"taskboard/internal/models"

	"gorm.io/gorm"
)

// BoardRepository defines persistence operations for boards and their
// sharing edges.
type BoardRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Board, error)
	GetLayout(ctx context.Context, id uint) (*models.Board, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Board, error)
	Create(ctx context.Context, board *models.Board) error
	Update(ctx context.Context, board *models.Board) error
	Delete(ctx context.Context, id uint) error
	Share(ctx context.Context, boardID, userID uint) error
	Unshare(ctx context.Context, boardID, userID uint) error
	GetUsers(ctx context.Context, boardID uint) ([]models.User, error)
	HasAccess(ctx context.Context, boardID, userID uint) (bool, error)
	IsOwner(ctx context.Context, boardID, userID uint) (bool, error)
	SearchByName(ctx context.Context, userID uint, query string, limit, offset int) ([]models.Board, error)
}

type boardRepository struct {
	db *gorm.DB
}

// NewBoardRepository returns a new BoardRepository implementation.
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) GetByID(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	if err := readDB(r.db).WithContext(ctx).Preload("Creator").First(&board, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Board", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &board, nil
}

// GetLayout loads a board with its columns and tasks fully populated, both
// ordered by position then id. The result is cached briefly since the layout
// is the hottest read of the API.
func (r *boardRepository) GetLayout(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	key := cache.LayoutKey(id)

	err := cache.Aside(ctx, key, &board, cache.LayoutTTL, func() error {
		q := readDB(r.db).WithContext(ctx).
			Preload("Creator").
			Preload("SharedUsers").
			Preload("Columns", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC, id ASC")
			}).
			Preload("Columns.Tasks", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC, id ASC")
			}).
			Preload("Columns.Tasks.Creator").
			Preload("Columns.Tasks.Assignees")
		if err := q.First(&board, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Board", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) ListByUser(ctx context.Context, userID uint) ([]models.Board, error) {
	var boards []models.Board
	err := readDB(r.db).WithContext(ctx).
		Distinct("boards.*").
		Joins("LEFT JOIN board_shares ON board_shares.board_id = boards.id").
		Where("boards.created_by = ? OR board_shares.user_id = ?", userID, userID).
		Preload("Creator").
		Order("boards.created_at DESC").
		Find(&boards).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return boards, nil
}

// Create inserts the board together with its default columns in one
// transaction. A board never exists without its starting columns.
func (r *boardRepository) Create(ctx context.Context, board *models.Board) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		for i, name := range models.DefaultColumnNames {
			col := models.Column{
				BoardID:  board.ID,
				Name:     name,
				Position: uint(i + 1),
			}
			if err := tx.Create(&col).Error; err != nil {
				return err
			}
			board.Columns = append(board.Columns, col)
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *boardRepository) Update(ctx context.Context, board *models.Board) error {
	if err := r.db.WithContext(ctx).Save(board).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateLayout(ctx, board.ID)
	return nil
}

// Delete soft-deletes the board and its columns. Tasks stay behind their
// soft-deleted columns and disappear with them.
func (r *boardRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Board{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("board_id = ?", id).Delete(&models.Column{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Board", id)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateLayout(ctx, id)
	return nil
}

func (r *boardRepository) Share(ctx context.Context, boardID, userID uint) error {
	share := models.BoardShare{BoardID: boardID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&share).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Board is already shared with this user")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateLayout(ctx, boardID)
	return nil
}

func (r *boardRepository) Unshare(ctx context.Context, boardID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&models.BoardShare{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Board share", boardID)
	}
	cache.InvalidateLayout(ctx, boardID)
	return nil
}

// GetUsers returns the owner followed by every user the board is shared with.
func (r *boardRepository) GetUsers(ctx context.Context, boardID uint) ([]models.User, error) {
	var board models.Board
	err := readDB(r.db).WithContext(ctx).
		Preload("Creator").
		Preload("SharedUsers").
		First(&board, boardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Board", boardID)
		}
		return nil, models.NewInternalError(err)
	}

	users := make([]models.User, 0, len(board.SharedUsers)+1)
	if board.Creator != nil {
		users = append(users, *board.Creator)
	}
	users = append(users, board.SharedUsers...)
	return users, nil
}

// HasAccess reports whether the user owns the board or holds a share edge.
func (r *boardRepository) HasAccess(ctx context.Context, boardID, userID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Board{}).
		Joins("LEFT JOIN board_shares ON board_shares.board_id = boards.id AND board_shares.user_id = ?", userID).
		Where("boards.id = ? AND (boards.created_by = ? OR board_shares.user_id IS NOT NULL)", boardID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *boardRepository) IsOwner(ctx context.Context, boardID, userID uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Board{}).
		Where("id = ? AND created_by = ?", boardID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *boardRepository) SearchByName(ctx context.Context, userID uint, query string, limit, offset int) ([]models.Board, error) {
	var boards []models.Board
	err := readDB(r.db).WithContext(ctx).
		Distinct("boards.*").
		Joins("LEFT JOIN board_shares ON board_shares.board_id = boards.id").
		Where("boards.created_by = ? OR board_shares.user_id = ?", userID, userID).
		Where("LOWER(boards.name) LIKE LOWER(?)", "%"+query+"%").
		Order("boards.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&boards).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return boards, nil
}
