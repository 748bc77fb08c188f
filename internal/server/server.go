package server

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/onlytraining/trainsync/internal/config"
	"github.com/onlytraining/trainsync/internal/domain"
	"github.com/onlytraining/trainsync/internal/handler"
	"github.com/onlytraining/trainsync/internal/infrastructure/ntfy"
	"github.com/onlytraining/trainsync/internal/middleware"
	"github.com/onlytraining/trainsync/internal/repository"
	"github.com/onlytraining/trainsync/internal/service"
	"github.com/onlytraining/trainsync/internal/telemetry"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	MongoClient *mongo.Client
	RedisClient *redis.Client

	// Overridable in tests. When nil, built from Config.
	Notifier domain.Notifier
	Probe    domain.ConnectivityProbe
	Clock    domain.Clock
	Media    domain.MediaStore
}

// App bundles the fiber application with the engine manager so the caller
// can shut both down.
type App struct {
	Fiber   *fiber.App
	Engines *service.EngineManager
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *App {
	// Initialize repositories
	sessionRepo := repository.NewMongoSessionRepository(deps.MongoDB)
	sessionItemRepo := repository.NewMongoSessionItemRepository(deps.MongoDB)
	workoutRepo := repository.NewMongoWorkoutRepository(deps.MongoDB)
	workoutItemRepo := repository.NewMongoWorkoutItemRepository(deps.MongoDB)
	snapshotStore := repository.NewRedisSnapshotStore(deps.RedisClient)

	probe := deps.Probe
	if probe == nil {
		probe = repository.NewMongoProbe(deps.MongoClient)
	}

	notifier := deps.Notifier
	if notifier == nil && deps.Config.Ntfy.Enabled {
		notifier = ntfy.NewClient(ntfy.Config{
			Endpoint: deps.Config.Ntfy.Endpoint,
			Topic:    deps.Config.Ntfy.Topic,
			Token:    deps.Config.Ntfy.Token,
		})
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	media := deps.Media
	if media == nil && deps.Config.S3.Endpoint != "" {
		s3Store, err := repository.NewS3MediaStore(context.Background(), deps.Config.S3)
		if err != nil {
			log.Printf("Warning: Failed to initialize media store: %v", err)
		} else {
			media = s3Store
		}
	}

	// Initialize services
	engines := service.NewEngineManager(service.EngineManagerDeps{
		Sessions:           sessionRepo,
		SessionItems:       sessionItemRepo,
		Workouts:           workoutRepo,
		WorkoutItems:       workoutItemRepo,
		Snapshots:          snapshotStore,
		Probe:              probe,
		Clock:              deps.Clock,
		Notifier:           notifier,
		LongWorkoutSeconds: int(deps.Config.Session.LongWorkoutSeconds),
	})
	historyService := service.NewHistoryService(sessionRepo, sessionItemRepo)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(engines, historyService)
	workoutHandler := handler.NewWorkoutHandler(engines)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TrainSync API",
		BodyLimit:    int(deps.Config.Server.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	if deps.Config.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "trainsync",
		})
	})

	// API v1 routes, all authenticated
	v1 := app.Group("/v1")
	v1.Use(middleware.VerifyTrainsyncToken(deps.Config.JWT.Secret))
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, 10*time.Minute))

	// Active session
	session := v1.Group("/session")
	session.Get("/", sessionHandler.GetSession)
	session.Post("/resume", sessionHandler.ResumeSession)
	session.Post("/restart", sessionHandler.RestartSession)
	session.Post("/finish", sessionHandler.FinishSession)
	session.Post("/finish-all", sessionHandler.FinishAllSessions)
	session.Post("/visibility", sessionHandler.SetVisibility)
	session.Get("/conflict", sessionHandler.GetConflict)
	session.Delete("/", sessionHandler.CancelSession)
	session.Patch("/items/:id/done", sessionHandler.ToggleItemDone)
	session.Patch("/items/:id/stats", sessionHandler.UpdateItemStats)

	v1.Post("/sessions", sessionHandler.StartSession)
	v1.Get("/history", sessionHandler.GetHistory)
	v1.Post("/sync/process", sessionHandler.ProcessSync)

	// Workout catalog
	workouts := v1.Group("/workouts")
	workouts.Get("/", workoutHandler.ListWorkouts)
	workouts.Post("/", workoutHandler.CreateWorkout)
	workouts.Delete("/:id", workoutHandler.DeleteWorkout)
	workouts.Post("/:id/archive", workoutHandler.ArchiveWorkout)
	workouts.Post("/:id/unarchive", workoutHandler.UnarchiveWorkout)
	workouts.Get("/:id/items", workoutHandler.ListWorkoutItems)
	workouts.Post("/:id/items", workoutHandler.AddWorkoutItem)
	workouts.Patch("/:id/items/:item_id", workoutHandler.UpdateWorkoutItem)
	workouts.Delete("/:id/items/:item_id", workoutHandler.DeleteWorkoutItem)

	// Media uploads
	if media != nil {
		mediaHandler := handler.NewMediaHandler(media)
		v1.Post("/media/videos", mediaHandler.UploadVideo)
	}

	return &App{Fiber: app, Engines: engines}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	log.Printf("Error: %v", err)
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// noopNotifier discards notifications when push delivery is disabled.
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string) error { return nil }
