package server

import (
	"io"
	"time"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/service"
	"taskboard/internal/session"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   s.config.Env == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   s.config.Env == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Server) sessionTTL() time.Duration {
	if s.config.SessionTTLMin > 0 {
		return time.Duration(s.config.SessionTTLMin) * time.Minute
	}
	return defaultSessionTTL
}

// Register creates an account. The endpoint accepts JSON or a multipart form;
// the multipart variant may carry an avatar image.
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	avatar := ""

	if form, err := c.MultipartForm(); err == nil && form != nil {
		pick := func(key string) string {
			if v := form.Value[key]; len(v) > 0 {
				return v[0]
			}
			return ""
		}
		req.Name = pick("name")
		req.Lastname = pick("lastname")
		req.Email = pick("email")
		req.Password = pick("password")

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
			avatar = name
		}
	} else if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   avatar,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.Respond(c, fiber.StatusCreated, "Account created", user)
}

// Login is the credential step of the two-factor flow. On success the
// response sets a pending session cookie and the emailed code must be
// verified before any protected route opens up.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.StartLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	sess, err := s.sessions.Create(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	sess.PendingUserID = user.ID
	if err := s.sessions.Save(c.UserContext(), sess); err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, sess.Token, s.sessionTTL())

	return models.Respond(c, fiber.StatusOK, "Verification code sent", fiber.Map{
		"email": service.MaskEmail(user.Email),
	})
}

// VerifyLogin is the code step of the two-factor flow. The pending session
// is discarded and a fresh authenticated one is issued, so the token rotates
// at the privilege boundary.
func (s *Server) VerifyLogin(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	if !sess.AwaitingCode() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("No pending login"))
	}

	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.VerifyLogin(c.UserContext(), sess.PendingUserID, req.Code)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	if err := s.sessions.Destroy(c.UserContext(), sess.Token); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to destroy pending session", "error", err.Error())
	}
	fresh, err := s.sessions.Create(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	fresh.UserID = user.ID
	if err := s.sessions.Save(c.UserContext(), fresh); err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	s.setSessionCookie(c, fresh.Token, s.sessionTTL())

	return models.Respond(c, fiber.StatusOK, "Login successful", user)
}

// ResendCode re-issues the two-factor code for a pending login.
func (s *Server) ResendCode(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	if !sess.AwaitingCode() {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("No pending login"))
	}

	user, err := s.authService.ResendCode(c.UserContext(), sess.PendingUserID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.Respond(c, fiber.StatusOK, "Verification code sent", fiber.Map{
		"email": service.MaskEmail(user.Email),
	})
}

// Logout destroys the session record and clears the cookie. Logging out
// without a session is fine.
func (s *Server) Logout(c *fiber.Ctx) error {
	if sess := middleware.CurrentSession(c); sess != nil {
		if err := s.sessions.Destroy(c.UserContext(), sess.Token); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to destroy session", "error", err.Error())
		}
	}
	s.clearSessionCookie(c)
	return models.Respond(c, fiber.StatusOK, "Logged out", nil)
}

// Me returns the authenticated user's profile.
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "", user)
}

// ForgotPassword always answers 200 so the endpoint cannot be used to probe
// which emails are registered.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK,
		"If that email is registered, a reset link is on its way", nil)
}

// ResetPassword consumes the emailed token and sets the new password.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing reset token"))
	}

	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.authService.ResetPassword(c.UserContext(), token, req.Password); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Password updated", nil)
}
