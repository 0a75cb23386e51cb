// Package service holds the business logic between the HTTP handlers and the
// repositories.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/mail"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	twoFactorCodeTTL = 10 * time.Minute
	resetTokenTTL    = 15 * time.Minute
)

// AuthService implements registration and the two-step email login flow.
type AuthService struct {
	users  repository.UserRepository
	mailer mail.Mailer
	cfg    *config.Config
}

type RegisterInput struct {
	Name     string
	Lastname string
	Email    string
	Password string
	Avatar   string
}

func NewAuthService(users repository.UserRepository, mailer mail.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{users: users, mailer: mailer, cfg: cfg}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Lastname: strings.TrimSpace(in.Lastname),
		Email:    email,
		Password: string(hashed),
		Avatar:   in.Avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// StartLogin checks the credentials, stores a fresh one-time code on the user
// and mails it out. The caller still has to verify the code before the
// session becomes authenticated.
func (s *AuthService) StartLogin(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		middleware.LoginAttempts.WithLabelValues("password", "failure").Inc()
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		middleware.LoginAttempts.WithLabelValues("password", "failure").Inc()
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}
	middleware.LoginAttempts.WithLabelValues("password", "success").Inc()
	return user, nil
}

// VerifyLogin consumes the one-time code. The code is single use: it is
// cleared on success whether or not anything later in the login fails.
func (s *AuthService) VerifyLogin(ctx context.Context, userID uint, code string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasValidTwoFactorCode(strings.TrimSpace(code), time.Now()) {
		middleware.LoginAttempts.WithLabelValues("code", "failure").Inc()
		return nil, models.NewUnauthorizedError("Invalid or expired verification code")
	}

	if err := s.users.ClearTwoFactorCode(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, userID, time.Now()); err != nil {
		return nil, err
	}
	middleware.LoginAttempts.WithLabelValues("code", "success").Inc()
	return user, nil
}

// ResendCode replaces the pending code with a fresh one and mails it again.
func (s *AuthService) ResendCode(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueCode(ctx context.Context, user *models.User) error {
	code, err := generateCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	expires := time.Now().Add(twoFactorCodeTTL)
	if err := s.users.SetTwoFactorCode(ctx, user.ID, code, expires); err != nil {
		return err
	}
	if err := s.mailer.SendTwoFactorCode(ctx, user.Email, user.Name, code); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// generateCode draws six digits from crypto/rand. Leading zeros count.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ForgotPassword mails a reset link when the address is known. Unknown
// addresses return no error so the endpoint never leaks which emails exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	expires := time.Now().Add(resetTokenTTL)
	token, err := s.signResetToken(user.ID, expires)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.FrontendURL, "/"), token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResetPassword validates the signed token against the copy stored on the
// user row, then swaps the password and invalidates the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	userID, err := s.parseResetToken(token)
	if err != nil {
		return models.NewUnauthorizedError("Invalid or expired reset token")
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil || user.ID != userID {
		return models.NewUnauthorizedError("Invalid or expired reset token")
	}
	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return models.NewUnauthorizedError("Invalid or expired reset token")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return err
	}
	return s.users.ClearResetToken(ctx, user.ID)
}

func (s *AuthService) signResetToken(userID uint, expires time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"typ": "password_reset",
		"exp": expires.Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) parseResetToken(token string) (uint, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid claims")
	}
	if typ, _ := claims["typ"].(string); typ != "password_reset" {
		return 0, fmt.Errorf("wrong token type")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil {
		return 0, err
	}
	return userID, nil
}

// MaskEmail hides most of the local part for the verify screen, e.g.
// "jo****@example.com".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 2 {
		return email
	}
	return email[:2] + strings.Repeat("*", at-2) + email[at:]
}
