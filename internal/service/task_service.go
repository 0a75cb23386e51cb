package service

import (
	"context"
	"strings"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/internal/validation"
)

// TaskService covers task CRUD, position moves and assignment. Reads and
// most writes need board access; deleting is restricted to the task creator
// or the board owner.
type TaskService struct {
	taskRepo   repository.TaskRepository
	columnRepo repository.ColumnRepository
	boardRepo  repository.BoardRepository
}

type CreateTaskInput struct {
	ColumnID    uint
	Title       string
	Description string
	Position    uint
	AssigneeIDs []uint
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Completed   *bool
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	columnRepo repository.ColumnRepository,
	boardRepo repository.BoardRepository,
) *TaskService {
	return &TaskService{taskRepo: taskRepo, columnRepo: columnRepo, boardRepo: boardRepo}
}

// boardOf resolves the board a column belongs to.
func (s *TaskService) boardOf(ctx context.Context, columnID uint) (uint, error) {
	column, err := s.columnRepo.GetByID(ctx, columnID)
	if err != nil {
		return 0, err
	}
	return column.BoardID, nil
}

func (s *TaskService) requireAccess(ctx context.Context, boardID, userID uint) error {
	ok, err := s.boardRepo.HasAccess(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You do not have access to this board")
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, userID uint, in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateTaskTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	boardID, err := s.boardOf(ctx, in.ColumnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}

	task := &models.Task{
		ColumnID:    in.ColumnID,
		Title:       title,
		Description: in.Description,
		Position:    in.Position,
		CreatedBy:   userID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	if len(in.AssigneeIDs) > 0 {
		if err := s.assign(ctx, task.ID, boardID, in.AssigneeIDs); err != nil {
			return nil, err
		}
	}
	return s.taskRepo.GetByID(ctx, task.ID)
}

func (s *TaskService) GetTask(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.boardOf(ctx, task.ColumnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID uint, in UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validation.ValidateTaskTitle(title); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleComplete flips the done flag.
func (s *TaskService) ToggleComplete(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	task.Completed = !task.Completed
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) MoveTask(ctx context.Context, taskID, userID, position uint) (*models.Task, error) {
	if _, err := s.GetTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.MoveToPosition(ctx, taskID, position)
}

// MoveTaskToColumn needs access to the boards on both ends of the move.
func (s *TaskService) MoveTaskToColumn(ctx context.Context, taskID, userID, targetColumnID, position uint) (*models.Task, error) {
	if _, err := s.GetTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	targetBoardID, err := s.boardOf(ctx, targetColumnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, targetBoardID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.MoveToColumn(ctx, taskID, targetColumnID, position)
}

// DeleteTask is allowed for the task creator and the board owner only.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uint) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	boardID, err := s.boardOf(ctx, task.ColumnID)
	if err != nil {
		return err
	}
	if task.CreatedBy != userID {
		owner, err := s.boardRepo.IsOwner(ctx, boardID, userID)
		if err != nil {
			return err
		}
		if !owner {
			return models.NewForbiddenError("Only the task creator or the board owner can delete a task")
		}
	}
	return s.taskRepo.Delete(ctx, taskID)
}

// AssignUsers replaces the assignee set. Every assignee must have access to
// the task's board.
func (s *TaskService) AssignUsers(ctx context.Context, taskID, userID uint, assigneeIDs []uint) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.boardOf(ctx, task.ColumnID)
	if err != nil {
		return nil, err
	}
	if err := s.assign(ctx, taskID, boardID, assigneeIDs); err != nil {
		return nil, err
	}
	return s.taskRepo.GetByID(ctx, taskID)
}

func (s *TaskService) assign(ctx context.Context, taskID, boardID uint, assigneeIDs []uint) error {
	for _, id := range assigneeIDs {
		ok, err := s.boardRepo.HasAccess(ctx, boardID, id)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewValidationError("Assignees must have access to the board")
		}
	}
	return s.taskRepo.ReplaceAssignees(ctx, taskID, assigneeIDs)
}

func (s *TaskService) ListMyTasks(ctx context.Context, userID uint) ([]models.Task, error) {
	return s.taskRepo.ListByAssignee(ctx, userID)
}

// ListUserTasks returns another user's assigned tasks, narrowed to the
// boards the requester can see.
func (s *TaskService) ListUserTasks(ctx context.Context, requesterID, targetID uint) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByAssignee(ctx, targetID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Task, 0, len(tasks))
	// access is checked per board; columns repeat boards so memoize
	boardAccess := map[uint]bool{}
	for _, task := range tasks {
		boardID, err := s.boardOf(ctx, task.ColumnID)
		if err != nil {
			return nil, err
		}
		ok, seen := boardAccess[boardID]
		if !seen {
			ok, err = s.boardRepo.HasAccess(ctx, boardID, requesterID)
			if err != nil {
				return nil, err
			}
			boardAccess[boardID] = ok
		}
		if ok {
			visible = append(visible, task)
		}
	}
	return visible, nil
}

func (s *TaskService) ListBoardTasks(ctx context.Context, boardID, userID uint, completed *bool) ([]models.Task, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByBoard(ctx, boardID, completed)
}

func (s *TaskService) SearchTasks(ctx context.Context, boardID, userID uint, query string) ([]models.Task, error) {
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.taskRepo.SearchByTitle(ctx, boardID, strings.TrimSpace(query))
}

// FilterColumnTasks lists one column's tasks, optionally narrowed to done or
// not-done ones.
func (s *TaskService) FilterColumnTasks(ctx context.Context, columnID, userID uint, completed *bool) ([]models.Task, error) {
	boardID, err := s.boardOf(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByColumn(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if completed == nil {
		return tasks, nil
	}
	filtered := tasks[:0]
	for _, task := range tasks {
		if task.Completed == *completed {
			filtered = append(filtered, task)
		}
	}
	return filtered, nil
}

// SearchColumnTasks matches one column's tasks by title, case-insensitively.
func (s *TaskService) SearchColumnTasks(ctx context.Context, columnID, userID uint, query string) ([]models.Task, error) {
	boardID, err := s.boardOf(ctx, columnID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, boardID, userID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByColumn(ctx, columnID)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tasks, nil
	}
	matched := tasks[:0]
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), query) {
			matched = append(matched, task)
		}
	}
	return matched, nil
}
