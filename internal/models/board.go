package models

import (
	"time"

	"gorm.io/gorm"
)

// Board is the top-level container of columns. Ownership is tracked through
// CreatedBy; additional users gain access through BoardShare edges.
type Board struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	CreatedBy   uint           `gorm:"not null;index" json:"created_by"`
	Creator     *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Columns     []Column       `gorm:"foreignKey:BoardID" json:"columns,omitempty"`
	SharedUsers []User         `gorm:"many2many:board_shares" json:"shared_users,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BoardShare is the join-table edge granting a non-owner user access to a
// board. SharedAt records when access was granted.
type BoardShare struct {
	UserID   uint      `gorm:"primaryKey" json:"user_id"`
	BoardID  uint      `gorm:"primaryKey" json:"board_id"`
	SharedAt time.Time `gorm:"autoCreateTime" json:"shared_at"`
}
