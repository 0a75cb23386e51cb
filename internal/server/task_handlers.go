package server

import (
	"taskboard/internal/models"
	"taskboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createTaskRequest struct {
	ColumnID    uint   `json:"column_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    uint   `json:"position"`
	AssigneeIDs []uint `json:"assignee_ids"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type moveToColumnRequest struct {
	ColumnID uint `json:"column_id"`
	Position uint `json:"position"`
}

type assignRequest struct {
	UserIDs []uint `json:"user_ids"`
}

// CreateTask adds a task to a column, appending unless an explicit position
// is given.
func (s *Server) CreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ColumnID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("column_id is required"))
	}

	task, err := s.taskService.CreateTask(c.UserContext(), currentUserID(c), service.CreateTaskInput{
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Task created", task)
}

func (s *Server) GetTask(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	task, err := s.taskService.GetTask(c.UserContext(), taskID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", task)
}

func (s *Server) UpdateTask(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	task, err := s.taskService.UpdateTask(c.UserContext(), taskID, currentUserID(c), service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Task updated", task)
}

func (s *Server) DeleteTask(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	if err := s.taskService.DeleteTask(c.UserContext(), taskID, currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Task deleted", nil)
}

// MoveTask shifts a task to a new position inside its column.
func (s *Server) MoveTask(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	task, err := s.taskService.MoveTask(c.UserContext(), taskID, currentUserID(c), req.Position)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Task moved", task)
}

// MoveTaskToColumn moves a task into another column, appending unless a
// position is given.
func (s *Server) MoveTaskToColumn(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	var req moveToColumnRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ColumnID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("column_id is required"))
	}
	task, err := s.taskService.MoveTaskToColumn(c.UserContext(), taskID, currentUserID(c),
		req.ColumnID, req.Position)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Task moved", task)
}

// ToggleComplete flips the task's done flag.
func (s *Server) ToggleComplete(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	task, err := s.taskService.ToggleComplete(c.UserContext(), taskID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Task updated", task)
}

// AssignUsers replaces the task's assignee set.
func (s *Server) AssignUsers(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	task, err := s.taskService.AssignUsers(c.UserContext(), taskID, currentUserID(c), req.UserIDs)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Assignees updated", task)
}

func (s *Server) AddAssignee(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	task, err := s.taskService.GetTask(c.UserContext(), taskID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	ids := make([]uint, 0, len(task.Assignees)+1)
	for _, u := range task.Assignees {
		if u.ID == userID {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("User is already assigned to this task"))
		}
		ids = append(ids, u.ID)
	}
	ids = append(ids, userID)

	task, err = s.taskService.AssignUsers(c.UserContext(), taskID, currentUserID(c), ids)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Assignee added", task)
}

func (s *Server) RemoveAssignee(c *fiber.Ctx) error {
	taskID, err := s.parseID(c, "taskId")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if _, err := s.taskService.GetTask(c.UserContext(), taskID, currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if err := s.taskRepo.RemoveAssignee(c.UserContext(), taskID, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Assignee removed", nil)
}

// GetMyTasks lists the tasks assigned to the authenticated user across all
// boards.
func (s *Server) GetMyTasks(c *fiber.Ctx) error {
	tasks, err := s.taskService.ListMyTasks(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", tasks)
}

// GetUserTasks lists another user's assigned tasks on boards the requester
// can see.
func (s *Server) GetUserTasks(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	tasks, err := s.taskService.ListUserTasks(c.UserContext(), currentUserID(c), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", tasks)
}

// FilterTasks lists a column's tasks, narrowed by ?completed=true|false.
func (s *Server) FilterTasks(c *fiber.Ctx) error {
	columnID, err := s.parseID(c, "columnId")
	if err != nil {
		return nil
	}
	var completed *bool
	if raw := c.Query("completed"); raw != "" {
		v := raw == "true" || raw == "1"
		completed = &v
	}
	tasks, err := s.taskService.FilterColumnTasks(c.UserContext(), columnID, currentUserID(c), completed)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", tasks)
}

// SearchTasks matches a column's tasks by title via ?q=.
func (s *Server) SearchTasks(c *fiber.Ctx) error {
	columnID, err := s.parseID(c, "columnId")
	if err != nil {
		return nil
	}
	tasks, err := s.taskService.SearchColumnTasks(c.UserContext(), columnID, currentUserID(c), c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", tasks)
}
