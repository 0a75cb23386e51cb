package database

import "taskboard/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Board{},
		&models.Column{},
		&models.Task{},
		&models.BoardShare{},
		&models.TaskAssignment{},
	}
}
