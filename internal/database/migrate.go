package database

import (
	"fmt"

	"taskboard/internal/models"

	"gorm.io/gorm"
)

// RegisterJoinTables wires the explicit join models onto their many-to-many
// associations so the sharing edge keeps its shared_at column. Must run
// before any association query, and before AutoMigrate.
func RegisterJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Board{}, "SharedUsers", &models.BoardShare{}); err != nil {
		return fmt.Errorf("join table board_shares: %w", err)
	}
	if err := db.SetupJoinTable(&models.User{}, "SharedBoards", &models.BoardShare{}); err != nil {
		return fmt.Errorf("join table board_shares (user side): %w", err)
	}
	if err := db.SetupJoinTable(&models.Task{}, "Assignees", &models.TaskAssignment{}); err != nil {
		return fmt.Errorf("join table task_assignments: %w", err)
	}
	if err := db.SetupJoinTable(&models.User{}, "AssignedTasks", &models.TaskAssignment{}); err != nil {
		return fmt.Errorf("join table task_assignments (user side): %w", err)
	}
	return nil
}

// Migrate registers join tables and auto-migrates the persistent models.
func Migrate(db *gorm.DB) error {
	if err := RegisterJoinTables(db); err != nil {
		return err
	}
	return db.AutoMigrate(PersistentModels()...)
}
