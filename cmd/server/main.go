package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/http/middleware"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/http/routes"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/adapters/persistence/models"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/config"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// @title DojoHub API
// @version 1.0
// @description 柔術道場管理システム DojoHub v1.0 API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@bjj-dojo-manager.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.bjj-dojo-manager.app
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
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed belt ladder and plan catalog
	if err := config.SeedMasterData(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Dev fixtures: default gym, admin account, sample timetable
	if cfg.IsDev() {
		if err := config.NewSeeder(db).Run(); err != nil {
			log.Printf("⚠️ Warning: Failed to seed dev data: %v", err)
		}
		if err := config.SeedScheduleData(db); err != nil {
			log.Printf("⚠️ Warning: Failed to seed schedule data: %v", err)
		}
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "DojoHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	deps := routes.Setup(app, db, cfg)

	// Start the cron scheduler: token cleanup, session completion,
	// subscription sweep, weekly generation, class reminders
	cronService := services.NewCronService(
		deps.RefreshTokenRepo,
		deps.SessionRepo,
		deps.GymRepo,
		deps.ScheduleService,
		deps.BillingService,
		deps.NotifyService,
	)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron scheduler: %v", err)
	}
	defer cronService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
