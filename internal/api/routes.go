/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/services
 * - backend/internal/polymarket
 */

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/harpoon-project/backend/internal/api/handlers"
	"github.com/harpoon-project/backend/internal/config"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
	"github.com/harpoon-project/backend/internal/services"
	"github.com/harpoon-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Clients
	dataAPIClient := data_api.NewClient(cfg)
	gammaClient := gamma.NewClient(cfg)
	subgraphClient := subgraph.NewClient(cfg)

	// 2. Initialize Services
	tradeStore := store.NewTradeStore(db)
	profileService := services.NewProfileService(gammaClient, rdb)
	tradeService := services.NewTradeService(tradeStore, dataAPIClient, gammaClient, subgraphClient, cfg.Cache.TTL)

	// 3. Initialize Handlers
	tradeHandler := handlers.NewTradeHandler(profileService, tradeService)

	// 4. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1.Get("/trades/:identity", tradeHandler.GetTradeHistory)
	v1.Delete("/trades/:identity/cache", tradeHandler.ClearCache)
	v1.Delete("/cache", tradeHandler.ClearAllCaches)
}
