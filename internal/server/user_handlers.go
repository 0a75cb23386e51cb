package server

import (
	"io"

	"taskboard/internal/models"
	"taskboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// GetUsers lists users, paginated. Used by the sharing and assignment
// pickers.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	users, err := s.userService.ListUsers(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", users)
}

// UpdateMyProfile updates name, lastname and optionally the avatar. Like
// Register it accepts JSON or a multipart form with an avatar file.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	in := service.UpdateProfileInput{UserID: userID}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		pick := func(key string) string {
			if v := form.Value[key]; len(v) > 0 {
				return v[0]
			}
			return ""
		}
		in.Name = pick("name")
		in.Lastname = pick("lastname")

		if file, err := c.FormFile("avatar"); err == nil && file != nil {
			f, err := file.Open()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Could not read avatar upload"))
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Could not read avatar upload"))
			}
			name, err := s.avatarService.Store(content)
			if err != nil {
				return models.RespondWithAppError(c, err)
			}
			in.Avatar = name
		}
	} else {
		var req updateProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Name = req.Name
		in.Lastname = req.Lastname
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Profile updated", user)
}

// ChangePassword swaps the password after checking the current one.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err := s.userService.ChangePassword(c.UserContext(), currentUserID(c),
		req.CurrentPassword, req.NewPassword)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Password updated", nil)
}

// GetAvatar streams a stored avatar file.
func (s *Server) GetAvatar(c *fiber.Ctx) error {
	path, err := s.avatarService.Path(c.Params("name"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/webp")
	return c.SendFile(path)
}
