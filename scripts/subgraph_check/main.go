package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/harpoon-project/backend/internal/config"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
)

// Smoke test for the Goldsky subgraph endpoints.
// Usage: subgraph_check <wallet-address>
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("=== Subgraph Endpoint Check ===")
	fmt.Printf("Orders subgraph:   %s\n", cfg.Polymarket.OrdersSubgraphURL)
	fmt.Printf("Activity subgraph: %s\n", cfg.Polymarket.ActivitySubgraphURL)
	fmt.Println()

	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <wallet-address>", os.Args[0])
	}
	wallet := strings.ToLower(os.Args[1])

	client := subgraph.NewClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fills, err := client.FetchAllOrderFills(ctx, wallet)
	if err != nil {
		log.Fatalf("❌ Orders subgraph query failed: %v", err)
	}
	fmt.Printf("✅ Order fills for %s: %d\n", wallet, len(fills))

	activity, err := client.FetchAllActivity(ctx, wallet)
	if err != nil {
		log.Fatalf("❌ Activity subgraph query failed: %v", err)
	}
	fmt.Printf("✅ Splits: %d, Merges: %d, Redemptions: %d\n",
		len(activity.Splits), len(activity.Merges), len(activity.Redemptions))
}
