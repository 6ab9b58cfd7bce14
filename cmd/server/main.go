package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/api"
	"github.com/sumgram/sumgram-backend/internal/api/middleware"
	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/database"
	"github.com/sumgram/sumgram-backend/internal/listener"
	"github.com/sumgram/sumgram-backend/internal/repository/postgres"
	"github.com/sumgram/sumgram-backend/internal/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.Telegram.APIID == 0 || cfg.Telegram.APIHash == "" {
		log.Fatal("telegram api_id and api_hash are required (TELEGRAM_API_ID, TELEGRAM_API_HASH)")
	}

	// Connect to database and run migrations
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// Initialize services
	svc, err := services.NewServices(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize services")
	}

	// Browser session store backed by Postgres
	sessionStorage := postgres.NewWebSessionStorage(db.DB)
	store := middleware.NewSessionStore(cfg.Session, sessionStorage)

	// Optional process-wide listening client
	var hub *listener.Hub
	if cfg.Listener.Enabled && cfg.Listener.SessionToken != "" {
		l := listener.New(cfg.Telegram, cfg.Listener.SessionToken, log)
		hub = l.Hub()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			if err := l.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("listener stopped")
			}
		}()
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SumGram Backend",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     getOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	api.SetupRoutes(app, svc, store, hub)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("SumGram Backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func getOrigins() string {
	origins := os.Getenv("SUMGRAM_CORS_ORIGINS")
	if origins == "" {
		return "http://localhost:3000,http://localhost:5173,http://localhost:8000"
	}
	return origins
}
