// Package server contains the HTTP handlers and route setup for the API.
package server

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/mail"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultSessionTTL = 24 * time.Hour

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	sessions       session.Store
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	boardRepo      repository.BoardRepository
	columnRepo     repository.ColumnRepository
	taskRepo       repository.TaskRepository
	authService    *service.AuthService
	userService    *service.UserService
	boardService   *service.BoardService
	taskService    *service.TaskService
	avatarService  *service.AvatarService
}

// NewServer creates a server instance, connecting the database and Redis
// from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	mailer, err := mail.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("mailer setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, mailer), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with a SQLite database and a memory session store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer mail.Mailer) *Server {
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	ttl := defaultSessionTTL
	if cfg.SessionTTLMin > 0 {
		ttl = time.Duration(cfg.SessionTTLMin) * time.Minute
	}
	var sessions session.Store
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient, ttl)
	} else {
		sessions = session.NewMemoryStore(ttl)
	}

	prom := middleware.InitMetrics("taskboard-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		sessions:       sessions,
		promMiddleware: prom,
		userRepo:       userRepo,
		boardRepo:      boardRepo,
		columnRepo:     columnRepo,
		taskRepo:       taskRepo,
	}
	server.authService = service.NewAuthService(userRepo, mailer, cfg)
	server.userService = service.NewUserService(userRepo)
	server.boardService = service.NewBoardService(boardRepo, columnRepo, taskRepo, userRepo)
	server.taskService = service.NewTaskService(taskRepo, columnRepo, boardRepo)
	server.avatarService = service.NewAvatarService(cfg)

	return server
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS must run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Avatar files (content-addressed, safe to serve without auth)
	api.Get("/avatars/:name", s.GetAvatar)

	requireAuth := middleware.SessionRequired(s.sessions)
	loadSession := middleware.SessionLoader(s.sessions)

	// User and auth routes
	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	users.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/login/verify", loadSession, middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "verify"), s.VerifyLogin)
	users.Post("/login/resend-code", loadSession, middleware.RateLimit(
		s.redis, 3, 5*time.Minute, "resend"), s.ResendCode)
	users.Post("/forgot-password", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "forgot"), s.ForgotPassword)
	users.Post("/reset-password/:token", s.ResetPassword)
	users.Post("/logout", loadSession, s.Logout)

	users.Get("/me", requireAuth, s.Me)
	users.Put("/me", requireAuth, s.UpdateMyProfile)
	users.Put("/me/password", requireAuth, s.ChangePassword)
	users.Get("/", requireAuth, s.GetUsers)

	// Board routes
	boards := api.Group("/boards", requireAuth)
	boards.Get("/", s.GetBoards)
	boards.Get("/search", s.SearchBoards)
	boards.Post("/", s.CreateBoard)
	// Specific /:boardId/:resource routes before the generic /:boardId route
	boards.Get("/:boardId/layout", s.GetBoardLayout)
	boards.Get("/:boardId/users", s.GetBoardUsers)
	boards.Get("/:boardId/stats", s.GetBoardStats)
	boards.Post("/:boardId/share", s.ShareBoard)
	boards.Delete("/:boardId/share/:userId", s.UnshareBoard)
	boards.Post("/:boardId/columns", s.CreateColumn)
	boards.Get("/:boardId", s.GetBoard)
	boards.Put("/:boardId", s.UpdateBoard)
	boards.Delete("/:boardId", s.DeleteBoard)

	// Column routes
	columns := api.Group("/columns", requireAuth)
	columns.Put("/:columnId", s.RenameColumn)
	columns.Patch("/:columnId/move", s.MoveColumn)
	columns.Delete("/:columnId", s.DeleteColumn)
	columns.Get("/:columnId/filter", s.FilterTasks)
	columns.Get("/:columnId/search", s.SearchTasks)

	// Task routes
	tasks := api.Group("/tasks", requireAuth)
	tasks.Post("/", s.CreateTask)
	tasks.Get("/me", s.GetMyTasks)
	tasks.Get("/users/:userId", s.GetUserTasks)
	// Specific /:taskId/:resource routes before the generic /:taskId route
	tasks.Patch("/:taskId/move-position", s.MoveTask)
	tasks.Patch("/:taskId/move-to-column", s.MoveTaskToColumn)
	tasks.Patch("/:taskId/toggle-complete", s.ToggleComplete)
	tasks.Put("/:taskId/assign-users", s.AssignUsers)
	tasks.Post("/:taskId/assign/:userId", s.AddAssignee)
	tasks.Delete("/:taskId/assign/:userId", s.RemoveAssignee)
	tasks.Get("/:taskId", s.GetTask)
	tasks.Put("/:taskId", s.UpdateTask)
	tasks.Delete("/:taskId", s.DeleteTask)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis can be reached.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": map[string]string{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
