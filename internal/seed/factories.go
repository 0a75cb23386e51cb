// Package seed creates demo data for development environments. Nothing in
// here is reachable from the API server.
package seed

import (
	"fmt"
	"strings"
	"time"

	"taskboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password every seeded account logs in with.
const DemoPassword = "password123"

// Factory builds domain entities and persists them. It is a thin helper
// shared by the seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options

	// hashed once; bcrypt per user makes large seeds crawl
	passwordHash string
}

// NewFactory creates a Factory bound to the given database handle.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(opts.RandSeed)

	cost := bcrypt.DefaultCost
	if opts.FastPasswords {
		cost = bcrypt.MinCost
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)

	return &Factory{db: db, opts: opts, passwordHash: string(hash)}
}

// CreateUser persists a generated user. Overrides run before the insert.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	user := &models.User{
		Name:     first,
		Lastname: last,
		Email:    fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), gofakeit.Number(100, 999)),
		Password: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateBoard persists a board owned by the given user together with the
// stock column set, same as the API's board creation path.
func (f *Factory) CreateBoard(owner *models.User, overrides ...func(*models.Board)) (*models.Board, error) {
	board := &models.Board{
		Name:      fmt.Sprintf("%s %s", gofakeit.BuzzWord(), gofakeit.HackerNoun()),
		CreatedBy: owner.ID,
	}
	for i, name := range models.DefaultColumnNames {
		board.Columns = append(board.Columns, models.Column{
			Name:     name,
			Position: uint(i + 1),
		})
	}
	for _, override := range overrides {
		override(board)
	}
	if err := f.db.Create(board).Error; err != nil {
		return nil, err
	}
	return board, nil
}

// CreateColumn appends a column to the board's sequence.
func (f *Factory) CreateColumn(board *models.Board, name string) (*models.Column, error) {
	var next uint
	err := f.db.Model(&models.Column{}).
		Where("board_id = ?", board.ID).
		Select("COALESCE(MAX(position), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return nil, err
	}
	column := &models.Column{BoardID: board.ID, Name: name, Position: next}
	if err := f.db.Create(column).Error; err != nil {
		return nil, err
	}
	return column, nil
}

// CreateTask appends a generated task to the column.
func (f *Factory) CreateTask(column *models.Column, creator *models.User, overrides ...func(*models.Task)) (*models.Task, error) {
	var next uint
	err := f.db.Model(&models.Task{}).
		Where("column_id = ?", column.ID).
		Select("COALESCE(MAX(position), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ColumnID:    column.ID,
		Title:       gofakeit.VerbAction() + " " + gofakeit.HackerNoun(),
		Description: gofakeit.Sentence(12),
		Completed:   gofakeit.Number(0, 3) == 0,
		Position:    next,
		CreatedBy:   creator.ID,
		CreatedAt:   spreadBack(f.opts.MaxDaysBack),
	}
	for _, override := range overrides {
		override(task)
	}
	if err := f.db.Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// ShareBoard grants the user collaborator access to the board.
func (f *Factory) ShareBoard(board *models.Board, user *models.User) error {
	return f.db.Create(&models.BoardShare{UserID: user.ID, BoardID: board.ID}).Error
}

// AssignTask puts the user on the task's assignee list.
func (f *Factory) AssignTask(task *models.Task, user *models.User) error {
	return f.db.Create(&models.TaskAssignment{UserID: user.ID, TaskID: task.ID}).Error
}

// spreadBack returns a created_at somewhere in the last maxDays days so
// seeded boards don't look like they were all made this second.
func spreadBack(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 90
	}
	hours := gofakeit.Number(0, maxDays*24)
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}
