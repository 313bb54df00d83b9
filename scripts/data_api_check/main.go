package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/harpoon-project/backend/internal/config"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
)

// Smoke test for the Polymarket Data API.
// Usage: data_api_check <wallet-address>
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("=== Data API Check ===")
	fmt.Printf("Data API URL: %s\n", cfg.Polymarket.DataAPIURL)
	fmt.Println()

	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <wallet-address>", os.Args[0])
	}
	wallet := strings.ToLower(os.Args[1])

	client := data_api.NewClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	trades, err := client.GetTrades(ctx, wallet, &data_api.TradesParams{Limit: 10})
	if err != nil {
		log.Fatalf("❌ /trades query failed: %v", err)
	}
	fmt.Printf("✅ Recent trades for %s: %d\n", wallet, len(trades))

	pnl, err := client.GetPnL(ctx, wallet)
	if err != nil {
		log.Fatalf("❌ PnL aggregation failed: %v", err)
	}
	fmt.Printf("✅ PnL: realized %.2f, unrealized %.2f, total %.2f\n",
		pnl.RealizedPnL, pnl.UnrealizedPnL, pnl.TotalPnL)
}
