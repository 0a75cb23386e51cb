package seed

import (
	"fmt"
	"log"
	"time"

	"taskboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much data the seeder creates.
type Options struct {
	NumUsers       int
	BoardsPerUser  int
	TasksPerColumn int
	MaxDaysBack    int
	ShouldClean    bool
	// FastPasswords swaps bcrypt to its minimum cost. Fine for throwaway
	// dev databases, never for anything reachable from outside.
	FastPasswords bool
	RandSeed      int64
}

// DefaultOptions returns the preset used by `make seed`.
func DefaultOptions() Options {
	return Options{
		NumUsers:       25,
		BoardsPerUser:  2,
		TasksPerColumn: 4,
		MaxDaysBack:    90,
		FastPasswords:  true,
		RandSeed:       time.Now().UnixNano(),
	}
}

// Seed populates the database with demo users, boards, columns, tasks,
// shares and assignments. Every account logs in with DemoPassword.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users with %d boards each...", opts.NumUsers, opts.BoardsPerUser)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("clear existing data: %w", err)
		}
	}

	factory := NewFactory(db, opts)

	users, err := createUsers(factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	var boards, tasks int
	for _, owner := range users {
		for b := 0; b < opts.BoardsPerUser; b++ {
			board, err := factory.CreateBoard(owner)
			if err != nil {
				return fmt.Errorf("create board for user %d: %w", owner.ID, err)
			}
			boards++

			collaborators := pickCollaborators(users, owner)
			for _, user := range collaborators {
				if err := factory.ShareBoard(board, user); err != nil {
					return fmt.Errorf("share board %d: %w", board.ID, err)
				}
			}

			members := append([]*models.User{owner}, collaborators...)
			n, err := fillColumns(factory, board, members, opts.TasksPerColumn)
			if err != nil {
				return err
			}
			tasks += n
		}
	}

	log.Printf("seeding done: %d boards, %d tasks", boards, tasks)
	return nil
}

// createUsers makes one well-known demo account plus generated ones.
func createUsers(factory *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	demo, err := factory.CreateUser(func(u *models.User) {
		u.Name = "Demo"
		u.Lastname = "User"
		u.Email = "demo@example.com"
	})
	if err != nil {
		return nil, err
	}
	users = append(users, demo)

	for i := 1; i < count; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// fillColumns adds tasks to each of the board's columns, assigning some of
// them to board members. Returns the number of tasks created.
func fillColumns(factory *Factory, board *models.Board, members []*models.User, perColumn int) (int, error) {
	created := 0
	for i := range board.Columns {
		column := &board.Columns[i]
		// uneven columns read more like a live board
		n := gofakeit.Number(0, perColumn)
		for t := 0; t < n; t++ {
			creator := members[gofakeit.Number(0, len(members)-1)]
			task, err := factory.CreateTask(column, creator)
			if err != nil {
				return created, fmt.Errorf("create task in column %d: %w", column.ID, err)
			}
			created++

			if gofakeit.Bool() {
				assignee := members[gofakeit.Number(0, len(members)-1)]
				if err := factory.AssignTask(task, assignee); err != nil {
					return created, fmt.Errorf("assign task %d: %w", task.ID, err)
				}
			}
		}
	}
	return created, nil
}

// pickCollaborators returns up to two random users other than the owner.
func pickCollaborators(users []*models.User, owner *models.User) []*models.User {
	var others []*models.User
	for _, u := range users {
		if u.ID != owner.ID {
			others = append(others, u)
		}
	}
	gofakeit.ShuffleAnySlice(others)
	limit := gofakeit.Number(0, 2)
	if limit > len(others) {
		limit = len(others)
	}
	return others[:limit]
}

// clearData wipes every domain table. Deletes run child-first so foreign
// keys hold on engines that enforce them.
func clearData(db *gorm.DB) error {
	log.Println("clearing existing data...")
	wipe := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.TaskAssignment{},
		&models.Task{},
		&models.Column{},
		&models.BoardShare{},
		&models.Board{},
		&models.User{},
	} {
		if err := wipe.Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
