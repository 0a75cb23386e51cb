// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account on the task board.
//
// The two-factor and reset-token columns hold transient login state; they are
// never serialized to API clients.
type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"not null" json:"name"`
	Lastname            string     `json:"lastname,omitempty"`
	Email               string     `gorm:"unique;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	Avatar              string     `json:"avatar,omitempty"`
	TwoFactorCode       string     `json:"-"`
	TwoFactorExpiresAt  *time.Time `json:"-"`
	ResetToken          string     `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	OwnedBoards   []Board `gorm:"foreignKey:CreatedBy" json:"-"`
	SharedBoards  []Board `gorm:"many2many:board_shares" json:"-"`
	AssignedTasks []Task  `gorm:"many2many:task_assignments" json:"-"`
}

// HasValidTwoFactorCode reports whether the stored 2FA code matches and has
// not expired at the given instant.
func (u *User) HasValidTwoFactorCode(code string, now time.Time) bool {
	if u.TwoFactorCode == "" || u.TwoFactorExpiresAt == nil {
		return false
	}
	return u.TwoFactorCode == code && now.Before(*u.TwoFactorExpiresAt)
}
