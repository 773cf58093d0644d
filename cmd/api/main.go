package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"regula-notificador/internal/config"
	"regula-notificador/internal/domain"
	"regula-notificador/internal/handler"
	"regula-notificador/internal/middleware"
	"regula-notificador/internal/pkg/clock"
	"regula-notificador/internal/repository"
	"regula-notificador/internal/service"
	"regula-notificador/internal/service/milestone"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Environment == "development" {
		zlog = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	clk := clock.New(cfg.Location())

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, redis, clk, cfg, zlog)
	handlers := handler.NewHandlers(services)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services.Queue.Start(ctx)
	defer services.Queue.Stop()
	services.Limiter.Start(ctx)
	defer services.Limiter.Stop()

	scheduler := milestone.NewScheduler(services.Milestone, cfg.MilestoneScanTime, cfg.Location(), zlog)
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	setupRoutes(app, handlers, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down")
		_ = app.Shutdown()
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRoutes(app *fiber.App, h *handler.Handlers, cfg *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	protected := v1.Group("", middleware.AuthRequired(cfg.JWTSecret))

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Post("/mark-all-viewed", h.Notification.MarkAllViewed)
	notifications.Post("/clear-all", h.Notification.ClearAll)
	notifications.Get("/views", middleware.RequireRole(domain.RoleTenantAdmin), h.Notification.ListViews)
	notifications.Get("/views/:id", middleware.RequireRole(domain.RoleTenantAdmin), h.Notification.ViewDetails)

	protected.Post("/messages", h.Message.Enqueue)

	admin := protected.Group("/admin", middleware.RequireRole(domain.RoleTenantAdmin))

	instances := admin.Group("/instances")
	instances.Get("/", h.Instance.List)
	instances.Post("/:tenantId/connect", h.Instance.Connect)
	instances.Post("/:tenantId/disconnect", h.Instance.Disconnect)
	instances.Patch("/:tenantId/config", h.Instance.UpdateConfig)
	instances.Post("/:tenantId/regenerate-credential", h.Instance.RegenerateCredential)
	instances.Post("/:tenantId/send", h.Instance.Send)

	queue := admin.Group("/queue")
	queue.Get("/stats", h.Queue.Stats)
	queue.Get("/failed", h.Queue.ListFailed)
	queue.Get("/jobs/:jobId", h.Queue.JobState)
	queue.Post("/failed/:jobId/retry", h.Queue.RetryFailed)
	queue.Delete("/failed", h.Queue.ClearFailed)

	admin.Post("/milestones/scan", h.Milestone.Scan)
}
