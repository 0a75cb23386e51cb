// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	SetTwoFactorCode(ctx context.Context, id uint, code string, expiresAt time.Time) error
	ClearTwoFactorCode(ctx context.Context, id uint) error
	SetResetToken(ctx context.Context, id uint, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hashed string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// cachedUser mirrors every user column with its own serialization tags.
// models.User hides the password hash and 2FA/reset state from API JSON, so
// round-tripping it through the cache would hand back users with those
// columns zeroed on every warm read.
type cachedUser struct {
	ID                  uint       `json:"id"`
	Name                string     `json:"name"`
	Lastname            string     `json:"lastname"`
	Email               string     `json:"email"`
	Password            string     `json:"password"`
	Avatar              string     `json:"avatar"`
	TwoFactorCode       string     `json:"two_factor_code"`
	TwoFactorExpiresAt  *time.Time `json:"two_factor_expires_at"`
	ResetToken          string     `json:"reset_token"`
	ResetTokenExpiresAt *time.Time `json:"reset_token_expires_at"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func newCachedUser(u *models.User) cachedUser {
	return cachedUser{
		ID:                  u.ID,
		Name:                u.Name,
		Lastname:            u.Lastname,
		Email:               u.Email,
		Password:            u.Password,
		Avatar:              u.Avatar,
		TwoFactorCode:       u.TwoFactorCode,
		TwoFactorExpiresAt:  u.TwoFactorExpiresAt,
		ResetToken:          u.ResetToken,
		ResetTokenExpiresAt: u.ResetTokenExpiresAt,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (c cachedUser) toModel() *models.User {
	return &models.User{
		ID:                  c.ID,
		Name:                c.Name,
		Lastname:            c.Lastname,
		Email:               c.Email,
		Password:            c.Password,
		Avatar:              c.Avatar,
		TwoFactorCode:       c.TwoFactorCode,
		TwoFactorExpiresAt:  c.TwoFactorExpiresAt,
		ResetToken:          c.ResetToken,
		ResetTokenExpiresAt: c.ResetTokenExpiresAt,
		LastLoginAt:         c.LastLoginAt,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var entry cachedUser
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &entry, cache.UserTTL, func() error {
		var user models.User
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		entry = newCachedUser(&user)
		return nil
	})

	if err != nil {
		return nil, err
	}
	return entry.toModel(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("reset_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// UpdateProfile writes only the given profile columns. Credential and token
// columns keep their own dedicated setters.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.updateColumns(ctx, id, fields)
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// updateColumns applies a partial update and drops the user's cache entry.
func (r *userRepository) updateColumns(ctx context.Context, id uint, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetTwoFactorCode(ctx context.Context, id uint, code string, expiresAt time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{
		"two_factor_code":       code,
		"two_factor_expires_at": expiresAt,
	})
}

func (r *userRepository) ClearTwoFactorCode(ctx context.Context, id uint) error {
	return r.updateColumns(ctx, id, map[string]any{
		"two_factor_code":       "",
		"two_factor_expires_at": nil,
	})
}

func (r *userRepository) SetResetToken(ctx context.Context, id uint, token string, expiresAt time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	})
}

func (r *userRepository) ClearResetToken(ctx context.Context, id uint) error {
	return r.updateColumns(ctx, id, map[string]any{
		"reset_token":            "",
		"reset_token_expires_at": nil,
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	return r.updateColumns(ctx, id, map[string]any{"password": hashed})
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]any{"last_login_at": at})
}
