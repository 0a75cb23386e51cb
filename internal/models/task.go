package models

import (
	"time"
)

// Task belongs to exactly one column at a time. Tasks of a column hold a
// dense position sequence 1..M. Tasks are hard-deleted; the delete path
// renumbers the surviving siblings.
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ColumnID    uint      `gorm:"not null;index" json:"column_id"`
	Column      *Column   `gorm:"foreignKey:ColumnID" json:"column,omitempty"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	Position    uint      `gorm:"not null" json:"position"`
	CreatedBy   uint      `gorm:"not null;index" json:"created_by"`
	Creator     *User     `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignees   []User    `gorm:"many2many:task_assignments" json:"assignees,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskAssignment is the join-table edge between a user and a task.
type TaskAssignment struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`
	TaskID uint `gorm:"primaryKey" json:"task_id"`
}

// TaskStats aggregates task counts for a board.
type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}
