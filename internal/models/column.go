package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultColumnNames are created for every new board, in display order.
var DefaultColumnNames = []string{"User Stories", "To Do", "Doing", "In revision", "Done"}

// Column belongs to exactly one board. Non-deleted columns of a board hold a
// dense position sequence 1..N; position ascending is display order.
type Column struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	BoardID   uint           `gorm:"not null;index" json:"board_id"`
	Name      string         `gorm:"not null" json:"name"`
	Position  uint           `gorm:"not null" json:"position"`
	Tasks     []Task         `gorm:"foreignKey:ColumnID" json:"tasks,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
