package service

import (
	"context"
	"strings"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/internal/validation"
)

// BoardService covers boards, sharing and column management. Every method
// takes the acting user and enforces the access rules: reading needs owner or
// share access, board mutations and sharing are owner only.
type BoardService struct {
	boardRepo  repository.BoardRepository
	columnRepo repository.ColumnRepository
	taskRepo   repository.TaskRepository
	userRepo   repository.UserRepository
}

func NewBoardService(
	boardRepo repository.BoardRepository,
	columnRepo repository.ColumnRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
) *BoardService {
	return &BoardService{
		boardRepo:  boardRepo,
		columnRepo: columnRepo,
		taskRepo:   taskRepo,
		userRepo:   userRepo,
	}
}

func (s *BoardService) requireAccess(ctx context.Context, boardID, userID uint) error {
	ok, err := s.boardRepo.HasAccess(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You do not have access to this board")
	}
	return nil
}

func (s *BoardService) requireOwner(ctx context.Context, boardID, userID uint) error {
	ok, err := s.boardRepo.IsOwner(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("Only the board owner can do this")
	}
	return nil
}

func (s *BoardService) ListBoards(ctx context.Context, userID uint) ([]models.Board, error) {
	return s.boardRepo.ListByUser(ctx, userID)
}

func (s *BoardService) GetBoard(ctx context.Context, boardID, userID uint) (*models.Board, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.boardRepo.GetByID(ctx, boardID)
}

// GetLayout returns the board with every column and task, ordered for
// display.
func (s *BoardService) GetLayout(ctx context.Context, boardID, userID uint) (*models.Board, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.boardRepo.GetLayout(ctx, boardID)
}

func (s *BoardService) CreateBoard(ctx context.Context, userID uint, name string) (*models.Board, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateBoardName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	board := &models.Board{Name: name, CreatedBy: userID}
	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) UpdateBoard(ctx context.Context, boardID, userID uint, name string) (*models.Board, error) {
	if err := s.requireOwner(ctx, boardID, userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validation.ValidateBoardName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	board.Name = name
	if err := s.boardRepo.Update(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardService) DeleteBoard(ctx context.Context, boardID, userID uint) error {
	if err := s.requireOwner(ctx, boardID, userID); err != nil {
		return err
	}
	return s.boardRepo.Delete(ctx, boardID)
}

// ShareBoard grants another user access, addressed by email. Sharing with
// yourself is rejected, sharing twice is rejected by the repository.
func (s *BoardService) ShareBoard(ctx context.Context, boardID, ownerID uint, email string) (*models.User, error) {
	if err := s.requireOwner(ctx, boardID, ownerID); err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	if target.ID == ownerID {
		return nil, models.NewValidationError("You already own this board")
	}
	if err := s.boardRepo.Share(ctx, boardID, target.ID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *BoardService) UnshareBoard(ctx context.Context, boardID, ownerID, targetID uint) error {
	if err := s.requireOwner(ctx, boardID, ownerID); err != nil {
		return err
	}
	return s.boardRepo.Unshare(ctx, boardID, targetID)
}

func (s *BoardService) BoardUsers(ctx context.Context, boardID, userID uint) ([]models.User, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.boardRepo.GetUsers(ctx, boardID)
}

func (s *BoardService) SearchBoards(ctx context.Context, userID uint, query string, limit, offset int) ([]models.Board, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.boardRepo.ListByUser(ctx, userID)
	}
	return s.boardRepo.SearchByName(ctx, userID, query, limit, offset)
}

func (s *BoardService) BoardStats(ctx context.Context, boardID, userID uint) (*models.TaskStats, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.StatsByBoard(ctx, boardID)
}

func (s *BoardService) CreateColumn(ctx context.Context, boardID, userID uint, name string, position uint) (*models.Column, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validation.ValidateBoardName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	column := &models.Column{BoardID: boardID, Name: name, Position: position}
	if err := s.columnRepo.Create(ctx, column); err != nil {
		return nil, err
	}
	return column, nil
}

func (s *BoardService) RenameColumn(ctx context.Context, columnID, userID uint, name string) (*models.Column, error) {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, column.BoardID, userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validation.ValidateBoardName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	column.Name = name
	if err := s.columnRepo.Update(ctx, column); err != nil {
		return nil, err
	}
	return column, nil
}

func (s *BoardService) MoveColumn(ctx context.Context, columnID, userID, position uint) (*models.Column, error) {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, column.BoardID, userID); err != nil {
		return nil, err
	}
	return s.columnRepo.MoveToPosition(ctx, columnID, position)
}

func (s *BoardService) DeleteColumn(ctx context.Context, columnID, userID uint) error {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, column.BoardID, userID); err != nil {
		return err
	}
	return s.columnRepo.Delete(ctx, columnID)
}
