package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devroots-sacco/internal/adapters/cache"
	"devroots-sacco/internal/adapters/http/middleware"
	"devroots-sacco/internal/adapters/http/routes"
	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/config"
	"devroots-sacco/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	_ "devroots-sacco/docs" // Swagger docs
)

// @title DevRoots SACCO API
// @version 1.0
// @description Back office for a savings and credit cooperative: members, savings, loans and reports.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@devroots.coop

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.devroots.coop
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	config.SetupLogger(cfg)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("Failed to auto migrate")
	}
	logrus.Info("Database migration completed")

	// Seed groups, roles, settings and the bootstrap admin
	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		logrus.WithError(err).Warn("Failed to seed data")
	}

	// Dashboard cache (optional)
	var dashboardCache services.Cache = services.NewNopCache()
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, dashboard caching disabled")
		} else {
			defer rdb.Close()
			dashboardCache = cache.NewRedisCache(rdb)
			logrus.WithField("addr", cfg.Redis.Addr).Info("Redis connected")
		}
	}

	store := repositories.NewStore(db)

	// Scheduled jobs: overdue reminders and token cleanup
	if cfg.Cron.Enabled {
		cronService := services.NewCronService(store, cfg.Cron)
		cronService.Start()
		defer cronService.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "DevRoots SACCO API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, store, dashboardCache, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	logrus.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.AppMode}).Info("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("Failed to start server")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Error("Error during shutdown")
	}
	logrus.Info("Server stopped gracefully")
}
