package server

import (
	"taskboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

type boardRequest struct {
	Name string `json:"name"`
}

type shareRequest struct {
	Email string `json:"email"`
}

type columnRequest struct {
	Name     string `json:"name"`
	Position uint   `json:"position"`
}

type moveRequest struct {
	Position uint `json:"position"`
}

// GetBoards lists the boards the user owns or has been invited to.
func (s *Server) GetBoards(c *fiber.Ctx) error {
	boards, err := s.boardService.ListBoards(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", boards)
}

// SearchBoards filters the user's boards by name, case-insensitively.
func (s *Server) SearchBoards(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	boards, err := s.boardService.SearchBoards(c.UserContext(), currentUserID(c),
		c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", boards)
}

func (s *Server) GetBoard(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	board, err := s.boardService.GetBoard(c.UserContext(), boardID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", board)
}

// GetBoardLayout returns the board with every column and its tasks in
// display order. This is the call the board screen lives on.
func (s *Server) GetBoardLayout(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	board, err := s.boardService.GetLayout(c.UserContext(), boardID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", board)
}

// CreateBoard makes a new board with the default five columns.
func (s *Server) CreateBoard(c *fiber.Ctx) error {
	var req boardRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	board, err := s.boardService.CreateBoard(c.UserContext(), currentUserID(c), req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Board created", board)
}

func (s *Server) UpdateBoard(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	var req boardRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	board, err := s.boardService.UpdateBoard(c.UserContext(), boardID, currentUserID(c), req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Board updated", board)
}

func (s *Server) DeleteBoard(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	if err := s.boardService.DeleteBoard(c.UserContext(), boardID, currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Board deleted", nil)
}

// ShareBoard grants another user access, addressed by email.
func (s *Server) ShareBoard(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	var req shareRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	target, err := s.boardService.ShareBoard(c.UserContext(), boardID, currentUserID(c), req.Email)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Board shared", target)
}

func (s *Server) UnshareBoard(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.boardService.UnshareBoard(c.UserContext(), boardID, currentUserID(c), targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Access revoked", nil)
}

// GetBoardUsers returns the owner and everyone the board is shared with.
func (s *Server) GetBoardUsers(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	users, err := s.boardService.BoardUsers(c.UserContext(), boardID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", users)
}

func (s *Server) GetBoardStats(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	stats, err := s.boardService.BoardStats(c.UserContext(), boardID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", stats)
}

// CreateColumn adds a column to a board, optionally at an explicit position.
func (s *Server) CreateColumn(c *fiber.Ctx) error {
	boardID, err := s.parseID(c, "boardId")
	if err != nil {
		return nil
	}
	var req columnRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	column, err := s.boardService.CreateColumn(c.UserContext(), boardID, currentUserID(c), req.Name, req.Position)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Column created", column)
}

func (s *Server) RenameColumn(c *fiber.Ctx) error {
	columnID, err := s.parseID(c, "columnId")
	if err != nil {
		return nil
	}
	var req columnRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	column, err := s.boardService.RenameColumn(c.UserContext(), columnID, currentUserID(c), req.Name)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Column updated", column)
}

// MoveColumn shifts a column to a new position on its board.
func (s *Server) MoveColumn(c *fiber.Ctx) error {
	columnID, err := s.parseID(c, "columnId")
	if err != nil {
		return nil
	}
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	column, err := s.boardService.MoveColumn(c.UserContext(), columnID, currentUserID(c), req.Position)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Column moved", column)
}

func (s *Server) DeleteColumn(c *fiber.Ctx) error {
	columnID, err := s.parseID(c, "columnId")
	if err != nil {
		return nil
	}
	if err := s.boardService.DeleteColumn(c.UserContext(), columnID, currentUserID(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Column deleted", nil)
}
