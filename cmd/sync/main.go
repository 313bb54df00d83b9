package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/harpoon-project/backend/internal/config"
	"github.com/harpoon-project/backend/internal/db"
	"github.com/harpoon-project/backend/internal/models"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
	"github.com/harpoon-project/backend/internal/services"
	"github.com/harpoon-project/backend/internal/store"
)

// One-shot wallet history refresh. Usage: sync <wallet-address>
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <wallet-address>", os.Args[0])
	}
	wallet := strings.ToLower(os.Args[1])

	log.Printf("🚀 Starting manual history sync for %s...", wallet)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	tradeStore := store.NewTradeStore(pgDB)
	service := services.NewTradeService(
		tradeStore,
		data_api.NewClient(cfg),
		gamma.NewClient(cfg),
		subgraph.NewClient(cfg),
		cfg.Cache.TTL,
	)

	ctx := context.Background()

	if err := service.RefreshWallet(ctx, wallet); err != nil {
		log.Fatalf("history sync failed: %v", err)
	}

	var count int64
	if err := pgDB.Model(&models.Trade{}).Where("wallet_address = ?", wallet).Count(&count).Error; err == nil {
		log.Printf("✅ Trades stored in Postgres for %s: %d", wallet, count)
	} else {
		log.Printf("⚠️ Failed to count stored trades: %v", err)
	}

	log.Println("✅ Manual history sync completed successfully.")
}
