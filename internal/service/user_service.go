package service

import (
	"context"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateProfileInput struct {
	UserID   uint
	Name     string
	Lastname string
	Avatar   string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile writes only the submitted fields. The update is a partial
// column write, never a full-row save: the loaded user may come from the
// cache, and a Save of it would overwrite credential columns concurrently
// set by the login flow.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["name"] = in.Name
	}
	if in.Lastname != "" {
		if err := validation.ValidateName(in.Lastname); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["lastname"] = in.Lastname
	}
	if in.Avatar != "" {
		fields["avatar"] = in.Avatar
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, in.UserID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

// ChangePassword requires the current password before accepting a new one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hashed))
}
