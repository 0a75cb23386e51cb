package service

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Function-field stubs for the repository interfaces. noop* constructors
// return stubs whose every method succeeds with zero values; tests override
// only the calls they care about.

type userRepoStub struct {
	getByIDFn            func(context.Context, uint) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getByResetTokenFn    func(context.Context, string) (*models.User, error)
	createFn             func(context.Context, *models.User) error
	updateFn             func(context.Context, *models.User) error
	updateProfileFn      func(context.Context, uint, map[string]any) error
	deleteFn             func(context.Context, uint) error
	listFn               func(context.Context, int, int) ([]models.User, error)
	setTwoFactorCodeFn   func(context.Context, uint, string, time.Time) error
	clearTwoFactorCodeFn func(context.Context, uint) error
	setResetTokenFn      func(context.Context, uint, string, time.Time) error
	clearResetTokenFn    func(context.Context, uint) error
	updatePasswordFn     func(context.Context, uint, string) error
	touchLastLoginFn     func(context.Context, uint, time.Time) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.getByResetTokenFn(ctx, token)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateProfileFn(ctx, id, fields)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) SetTwoFactorCode(ctx context.Context, id uint, code string, expiresAt time.Time) error {
	return s.setTwoFactorCodeFn(ctx, id, code, expiresAt)
}
func (s *userRepoStub) ClearTwoFactorCode(ctx context.Context, id uint) error {
	return s.clearTwoFactorCodeFn(ctx, id)
}
func (s *userRepoStub) SetResetToken(ctx context.Context, id uint, token string, expiresAt time.Time) error {
	return s.setResetTokenFn(ctx, id, token, expiresAt)
}
func (s *userRepoStub) ClearResetToken(ctx context.Context, id uint) error {
	return s.clearResetTokenFn(ctx, id)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	return s.updatePasswordFn(ctx, id, hashed)
}
func (s *userRepoStub) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.touchLastLoginFn(ctx, id, at)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:            func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:         func(context.Context, string) (*models.User, error) { return nil, nil },
		getByResetTokenFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:             func(context.Context, *models.User) error { return nil },
		updateFn:             func(context.Context, *models.User) error { return nil },
		updateProfileFn:      func(context.Context, uint, map[string]any) error { return nil },
		deleteFn:             func(context.Context, uint) error { return nil },
		listFn:               func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		setTwoFactorCodeFn:   func(context.Context, uint, string, time.Time) error { return nil },
		clearTwoFactorCodeFn: func(context.Context, uint) error { return nil },
		setResetTokenFn:      func(context.Context, uint, string, time.Time) error { return nil },
		clearResetTokenFn:    func(context.Context, uint) error { return nil },
		updatePasswordFn:     func(context.Context, uint, string) error { return nil },
		touchLastLoginFn:     func(context.Context, uint, time.Time) error { return nil },
	}
}

type boardRepoStub struct {
	getByIDFn      func(context.Context, uint) (*models.Board, error)
	getLayoutFn    func(context.Context, uint) (*models.Board, error)
	listByUserFn   func(context.Context, uint) ([]models.Board, error)
	createFn       func(context.Context, *models.Board) error
	updateFn       func(context.Context, *models.Board) error
	deleteFn       func(context.Context, uint) error
	shareFn        func(context.Context, uint, uint) error
	unshareFn      func(context.Context, uint, uint) error
	getUsersFn     func(context.Context, uint) ([]models.User, error)
	hasAccessFn    func(context.Context, uint, uint) (bool, error)
	isOwnerFn      func(context.Context, uint, uint) (bool, error)
	searchByNameFn func(context.Context, uint, string, int, int) ([]models.Board, error)
}

func (s *boardRepoStub) GetByID(ctx context.Context, id uint) (*models.Board, error) {
	return s.getByIDFn(ctx, id)
}
func (s *boardRepoStub) GetLayout(ctx context.Context, id uint) (*models.Board, error) {
	return s.getLayoutFn(ctx, id)
}
func (s *boardRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Board, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *boardRepoStub) Create(ctx context.Context, board *models.Board) error {
	return s.createFn(ctx, board)
}
func (s *boardRepoStub) Update(ctx context.Context, board *models.Board) error {
	return s.updateFn(ctx, board)
}
func (s *boardRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *boardRepoStub) Share(ctx context.Context, boardID, userID uint) error {
	return s.shareFn(ctx, boardID, userID)
}
func (s *boardRepoStub) Unshare(ctx context.Context, boardID, userID uint) error {
	return s.unshareFn(ctx, boardID, userID)
}
func (s *boardRepoStub) GetUsers(ctx context.Context, boardID uint) ([]models.User, error) {
	return s.getUsersFn(ctx, boardID)
}
func (s *boardRepoStub) HasAccess(ctx context.Context, boardID, userID uint) (bool, error) {
	return s.hasAccessFn(ctx, boardID, userID)
}
func (s *boardRepoStub) IsOwner(ctx context.Context, boardID, userID uint) (bool, error) {
	return s.isOwnerFn(ctx, boardID, userID)
}
func (s *boardRepoStub) SearchByName(ctx context.Context, userID uint, query string, limit, offset int) ([]models.Board, error) {
	return s.searchByNameFn(ctx, userID, query, limit, offset)
}

func noopBoardRepo() *boardRepoStub {
	return &boardRepoStub{
		getByIDFn:      func(_ context.Context, id uint) (*models.Board, error) { return &models.Board{ID: id}, nil },
		getLayoutFn:    func(_ context.Context, id uint) (*models.Board, error) { return &models.Board{ID: id}, nil },
		listByUserFn:   func(context.Context, uint) ([]models.Board, error) { return nil, nil },
		createFn:       func(context.Context, *models.Board) error { return nil },
		updateFn:       func(context.Context, *models.Board) error { return nil },
		deleteFn:       func(context.Context, uint) error { return nil },
		shareFn:        func(context.Context, uint, uint) error { return nil },
		unshareFn:      func(context.Context, uint, uint) error { return nil },
		getUsersFn:     func(context.Context, uint) ([]models.User, error) { return nil, nil },
		hasAccessFn:    func(context.Context, uint, uint) (bool, error) { return true, nil },
		isOwnerFn:      func(context.Context, uint, uint) (bool, error) { return true, nil },
		searchByNameFn: func(context.Context, uint, string, int, int) ([]models.Board, error) { return nil, nil },
	}
}

type columnRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.Column, error)
	listByBoardFn    func(context.Context, uint) ([]models.Column, error)
	findByNameFn     func(context.Context, uint, string) (*models.Column, error)
	nextPositionFn   func(context.Context, uint) (uint, error)
	createFn         func(context.Context, *models.Column) error
	updateFn         func(context.Context, *models.Column) error
	moveToPositionFn func(context.Context, uint, uint) (*models.Column, error)
	deleteFn         func(context.Context, uint) error
	reorderFn        func(context.Context, uint) error
}

func (s *columnRepoStub) GetByID(ctx context.Context, id uint) (*models.Column, error) {
	return s.getByIDFn(ctx, id)
}
func (s *columnRepoStub) ListByBoard(ctx context.Context, boardID uint) ([]models.Column, error) {
	return s.listByBoardFn(ctx, boardID)
}
func (s *columnRepoStub) FindByName(ctx context.Context, boardID uint, name string) (*models.Column, error) {
	return s.findByNameFn(ctx, boardID, name)
}
func (s *columnRepoStub) NextPosition(ctx context.Context, boardID uint) (uint, error) {
	return s.nextPositionFn(ctx, boardID)
}
func (s *columnRepoStub) Create(ctx context.Context, column *models.Column) error {
	return s.createFn(ctx, column)
}
func (s *columnRepoStub) Update(ctx context.Context, column *models.Column) error {
	return s.updateFn(ctx, column)
}
func (s *columnRepoStub) MoveToPosition(ctx context.Context, columnID, newPosition uint) (*models.Column, error) {
	return s.moveToPositionFn(ctx, columnID, newPosition)
}
func (s *columnRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *columnRepoStub) Reorder(ctx context.Context, boardID uint) error {
	return s.reorderFn(ctx, boardID)
}

func noopColumnRepo() *columnRepoStub {
	return &columnRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Column, error) {
			return &models.Column{ID: id, BoardID: 1}, nil
		},
		listByBoardFn:  func(context.Context, uint) ([]models.Column, error) { return nil, nil },
		findByNameFn:   func(context.Context, uint, string) (*models.Column, error) { return nil, nil },
		nextPositionFn: func(context.Context, uint) (uint, error) { return 1, nil },
		createFn:       func(context.Context, *models.Column) error { return nil },
		updateFn:       func(context.Context, *models.Column) error { return nil },
		moveToPositionFn: func(_ context.Context, id, pos uint) (*models.Column, error) {
			return &models.Column{ID: id, Position: pos}, nil
		},
		deleteFn:  func(context.Context, uint) error { return nil },
		reorderFn: func(context.Context, uint) error { return nil },
	}
}

type taskRepoStub struct {
	getByIDFn          func(context.Context, uint) (*models.Task, error)
	listByColumnFn     func(context.Context, uint) ([]models.Task, error)
	listByAssigneeFn   func(context.Context, uint) ([]models.Task, error)
	listByBoardFn      func(context.Context, uint, *bool) ([]models.Task, error)
	searchByTitleFn    func(context.Context, uint, string) ([]models.Task, error)
	statsByBoardFn     func(context.Context, uint) (*models.TaskStats, error)
	nextPositionFn     func(context.Context, uint) (uint, error)
	createFn           func(context.Context, *models.Task) error
	updateFn           func(context.Context, *models.Task) error
	moveToPositionFn   func(context.Context, uint, uint) (*models.Task, error)
	moveToColumnFn     func(context.Context, uint, uint, uint) (*models.Task, error)
	deleteFn           func(context.Context, uint) error
	reorderFn          func(context.Context, uint) error
	replaceAssigneesFn func(context.Context, uint, []uint) error
	addAssigneeFn      func(context.Context, uint, uint) error
	removeAssigneeFn   func(context.Context, uint, uint) error
}

func (s *taskRepoStub) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	return s.getByIDFn(ctx, id)
}
func (s *taskRepoStub) ListByColumn(ctx context.Context, columnID uint) ([]models.Task, error) {
	return s.listByColumnFn(ctx, columnID)
}
func (s *taskRepoStub) ListByAssignee(ctx context.Context, userID uint) ([]models.Task, error) {
	return s.listByAssigneeFn(ctx, userID)
}
func (s *taskRepoStub) ListByBoard(ctx context.Context, boardID uint, completed *bool) ([]models.Task, error) {
	return s.listByBoardFn(ctx, boardID, completed)
}
func (s *taskRepoStub) SearchByTitle(ctx context.Context, boardID uint, query string) ([]models.Task, error) {
	return s.searchByTitleFn(ctx, boardID, query)
}
func (s *taskRepoStub) StatsByBoard(ctx context.Context, boardID uint) (*models.TaskStats, error) {
	return s.statsByBoardFn(ctx, boardID)
}
func (s *taskRepoStub) NextPosition(ctx context.Context, columnID uint) (uint, error) {
	return s.nextPositionFn(ctx, columnID)
}
func (s *taskRepoStub) Create(ctx context.Context, task *models.Task) error {
	return s.createFn(ctx, task)
}
func (s *taskRepoStub) Update(ctx context.Context, task *models.Task) error {
	return s.updateFn(ctx, task)
}
func (s *taskRepoStub) MoveToPosition(ctx context.Context, taskID, newPosition uint) (*models.Task, error) {
	return s.moveToPositionFn(ctx, taskID, newPosition)
}
func (s *taskRepoStub) MoveToColumn(ctx context.Context, taskID, targetColumnID, position uint) (*models.Task, error) {
	return s.moveToColumnFn(ctx, taskID, targetColumnID, position)
}
func (s *taskRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *taskRepoStub) Reorder(ctx context.Context, columnID uint) error {
	return s.reorderFn(ctx, columnID)
}
func (s *taskRepoStub) ReplaceAssignees(ctx context.Context, taskID uint, userIDs []uint) error {
	return s.replaceAssigneesFn(ctx, taskID, userIDs)
}
func (s *taskRepoStub) AddAssignee(ctx context.Context, taskID, userID uint) error {
	return s.addAssigneeFn(ctx, taskID, userID)
}
func (s *taskRepoStub) RemoveAssignee(ctx context.Context, taskID, userID uint) error {
	return s.removeAssigneeFn(ctx, taskID, userID)
}

func noopTaskRepo() *taskRepoStub {
	return &taskRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Task, error) {
			return &models.Task{ID: id, ColumnID: 1, CreatedBy: 1}, nil
		},
		listByColumnFn:   func(context.Context, uint) ([]models.Task, error) { return nil, nil },
		listByAssigneeFn: func(context.Context, uint) ([]models.Task, error) { return nil, nil },
		listByBoardFn:    func(context.Context, uint, *bool) ([]models.Task, error) { return nil, nil },
		searchByTitleFn:  func(context.Context, uint, string) ([]models.Task, error) { return nil, nil },
		statsByBoardFn:   func(context.Context, uint) (*models.TaskStats, error) { return &models.TaskStats{}, nil },
		nextPositionFn:   func(context.Context, uint) (uint, error) { return 1, nil },
		createFn:         func(context.Context, *models.Task) error { return nil },
		updateFn:         func(context.Context, *models.Task) error { return nil },
		moveToPositionFn: func(_ context.Context, id, pos uint) (*models.Task, error) {
			return &models.Task{ID: id, Position: pos}, nil
		},
		moveToColumnFn: func(_ context.Context, id, col, pos uint) (*models.Task, error) {
			return &models.Task{ID: id, ColumnID: col, Position: pos}, nil
		},
		deleteFn:           func(context.Context, uint) error { return nil },
		reorderFn:          func(context.Context, uint) error { return nil },
		replaceAssigneesFn: func(context.Context, uint, []uint) error { return nil },
		addAssigneeFn:      func(context.Context, uint, uint) error { return nil },
		removeAssigneeFn:   func(context.Context, uint, uint) error { return nil },
	}
}

// mailerStub records what would have been sent.
type mailerStub struct {
	codes  []string
	resets []string
	err    error
}

func (m *mailerStub) SendTwoFactorCode(_ context.Context, _, _, code string) error {
	m.codes = append(m.codes, code)
	return m.err
}
func (m *mailerStub) SendPasswordReset(_ context.Context, _, _, resetURL string) error {
	m.resets = append(m.resets, resetURL)
	return m.err
}

// assertAppErrorCode asserts that err is an AppError carrying the given code.
func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
