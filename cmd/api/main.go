/**
 * @description
 * Main entry point for the Harpoon Backend API.
 * Initializes the Fiber web server, loads configuration, connects to
 * Postgres and Redis, runs migrations, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/harpoon-project/backend/internal/config: Config loader
 * - github.com/harpoon-project/backend/internal/db: Database connections
 *
 * @notes
 * - Redis is optional: without it identity resolution skips caching.
 */

package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/harpoon-project/backend/internal/api"
	"github.com/harpoon-project/backend/internal/config"
	"github.com/harpoon-project/backend/internal/db"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		log.Printf("Redis unavailable, continuing without identity cache: %v", err)
		redisClient = nil
	}

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Harpoon Trade History",
		StrictRouting: true,
		CaseSensitive: true,
	})

	// 4. Global Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(logger.New())  // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, OPTIONS",
	}))

	// 5. Routes
	api.SetupRoutes(app, pgDB, redisClient, cfg)

	// 6. Start Server
	log.Printf("🚀 Starting Harpoon Backend on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
