/**
 * @description
 * Worker Service Entry Point.
 * Keeps the trade cache warm: periodically re-refreshes wallets whose
 * watermark has gone stale, so repeat lookups hit fresh data.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 * - backend/internal/store
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harpoon-project/backend/internal/config"
	"github.com/harpoon-project/backend/internal/db"
	"github.com/harpoon-project/backend/internal/logger"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
	"github.com/harpoon-project/backend/internal/services"
	"github.com/harpoon-project/backend/internal/store"
)

// refreshBatchSize caps how many stale wallets one sweep re-fetches.
const refreshBatchSize = 20

func main() {
	logger.Info("🔥 Starting Harpoon Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DB
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Migrations failed: %v", err)
	}

	// 3. Initialize Services
	tradeStore := store.NewTradeStore(pgDB)
	tradeService := services.NewTradeService(
		tradeStore,
		data_api.NewClient(cfg),
		gamma.NewClient(cfg),
		subgraph.NewClient(cfg),
		cfg.Cache.TTL,
	)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Refresh Loop
	go func() {
		ticker := time.NewTicker(cfg.Cache.TTL)
		defer ticker.Stop()

		refreshStaleWallets(ctx, cfg, tradeStore, tradeService)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshStaleWallets(ctx, cfg, tradeStore, tradeService)
			}
		}
	}()

	// 6. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down Harpoon Worker...")
	cancel()
}

func refreshStaleWallets(ctx context.Context, cfg *config.Config, tradeStore *store.TradeStore, tradeService *services.TradeService) {
	cutoff := time.Now().UTC().Add(-cfg.Cache.TTL)
	stale, err := tradeStore.ListStaleWatermarks(ctx, cutoff, refreshBatchSize)
	if err != nil {
		logger.Error("Worker: failed to list stale wallets: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	logger.Info("Worker: refreshing %d stale wallet(s)", len(stale))
	for _, wm := range stale {
		if ctx.Err() != nil {
			return
		}
		if err := tradeService.RefreshWallet(ctx, wm.WalletAddress); err != nil {
			logger.Error("Worker: refresh failed for %s: %v", wm.WalletAddress, err)
		}
	}
}
