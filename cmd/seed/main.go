// Command seed fills a development database with demo accounts and boards.
package main

import (
	"flag"
	"log"

	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "number of users to create")
	flag.IntVar(&opts.BoardsPerUser, "boards", opts.BoardsPerUser, "boards per user")
	flag.IntVar(&opts.TasksPerColumn, "tasks", opts.TasksPerColumn, "max tasks per column")
	flag.BoolVar(&opts.ShouldClean, "clean", false, "wipe existing data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done. Log in as demo@example.com / %s", seed.DemoPassword)
}
