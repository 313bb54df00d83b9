package normalize

import (
	"strings"
	"testing"

	"github.com/harpoon-project/backend/internal/models"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
)

const wallet = "0xAbCd000000000000000000000000000000000001"

func TestFromOrderFillMakerBuy(t *testing.T) {
	fill := subgraph.OrderFill{
		ID:                "fill-1",
		Timestamp:         "1700000000",
		TransactionHash:   "0xdeadbeef",
		Maker:             strings.ToUpper(wallet), // case must not matter
		Taker:             "0x0000000000000000000000000000000000000002",
		MakerAssetID:      "0",
		TakerAssetID:      "123456",
		MakerAmountFilled: "5000000",
		TakerAmountFilled: "10000000",
	}

	trade, diag := FromOrderFill(wallet, fill)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideBuy {
		t.Errorf("expected buy, got %s", trade.Side)
	}
	if trade.Amount != 5.00 {
		t.Errorf("expected amount 5.00, got %v", trade.Amount)
	}
	if trade.Price == nil || *trade.Price != 0.5 {
		t.Errorf("expected price 0.5, got %v", trade.Price)
	}
	if trade.TokenID == nil || *trade.TokenID != "123456" {
		t.Errorf("expected token 123456, got %v", trade.TokenID)
	}
	if trade.TxHash != "0xdeadbeef" {
		t.Errorf("expected tx hash 0xdeadbeef, got %s", trade.TxHash)
	}
	if trade.WalletAddress != strings.ToLower(wallet) {
		t.Errorf("wallet address not lowercased: %s", trade.WalletAddress)
	}
}

func TestFromOrderFillTakerSell(t *testing.T) {
	fill := subgraph.OrderFill{
		ID:                "fill-2",
		Timestamp:         "1700000100",
		TransactionHash:   "0xfeed",
		Maker:             "0x0000000000000000000000000000000000000002",
		Taker:             wallet,
		MakerAssetID:      "0",
		TakerAssetID:      "987654",
		MakerAmountFilled: "8000000",
		TakerAmountFilled: "20000000",
	}

	trade, diag := FromOrderFill(wallet, fill)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideSell {
		t.Errorf("expected sell, got %s", trade.Side)
	}
	if trade.Amount != 8.00 {
		t.Errorf("expected amount 8.00, got %v", trade.Amount)
	}
	if trade.Price == nil || *trade.Price != 0.4 {
		t.Errorf("expected price 0.4, got %v", trade.Price)
	}
	if trade.TokenID == nil || *trade.TokenID != "987654" {
		t.Errorf("expected token 987654, got %v", trade.TokenID)
	}
}

func TestFromOrderFillStrangerSkipped(t *testing.T) {
	fill := subgraph.OrderFill{
		ID:        "fill-3",
		Timestamp: "1700000000",
		Maker:     "0x0000000000000000000000000000000000000002",
		Taker:     "0x0000000000000000000000000000000000000003",
	}

	trade, diag := FromOrderFill(wallet, fill)
	if trade != nil {
		t.Fatalf("expected no trade, got %+v", trade)
	}
	if diag == nil {
		t.Fatal("expected diagnostic")
	}
}

func TestFromOrderFillBadTimestamp(t *testing.T) {
	fill := subgraph.OrderFill{
		ID:        "fill-4",
		Timestamp: "not-a-number",
		Maker:     wallet,
	}

	trade, diag := FromOrderFill(wallet, fill)
	if trade != nil || diag == nil {
		t.Fatalf("expected diagnostic, got trade=%+v diag=%v", trade, diag)
	}
}

func TestFromSplit(t *testing.T) {
	split := subgraph.Split{
		ID:          "0xaaa_12",
		Timestamp:   "1700000200",
		Stakeholder: wallet,
		Amount:      "2500000",
		Condition:   "0xcond1",
	}

	trade, diag := FromSplit(wallet, split)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideBuy {
		t.Errorf("expected split to be a buy, got %s", trade.Side)
	}
	if trade.Amount != 2.5 {
		t.Errorf("expected amount 2.5, got %v", trade.Amount)
	}
	if trade.TxHash != "0xaaa" {
		t.Errorf("expected tx hash 0xaaa, got %s", trade.TxHash)
	}
	if trade.Price != nil {
		t.Errorf("splits carry no price, got %v", *trade.Price)
	}
	if trade.MarketID == nil || *trade.MarketID != "0xcond1" {
		t.Errorf("expected market id 0xcond1, got %v", trade.MarketID)
	}
}

func TestFromMergeIsSell(t *testing.T) {
	merge := subgraph.Merge{
		ID:        "0xbbb_3",
		Timestamp: "1700000300",
		Amount:    "1000000",
	}

	trade, diag := FromMerge(wallet, merge)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideSell {
		t.Errorf("expected merge to be a sell, got %s", trade.Side)
	}
	if trade.Amount != 1.0 {
		t.Errorf("expected amount 1.0, got %v", trade.Amount)
	}
}

func TestFromRedemption(t *testing.T) {
	redemption := subgraph.Redemption{
		ID:        "0xccc_0",
		Timestamp: "1700000400",
		Payout:    "12340000",
		Condition: "0xcond2",
	}

	trade, diag := FromRedemption(wallet, redemption)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideRedeem {
		t.Errorf("expected redeem, got %s", trade.Side)
	}
	if trade.Amount != 12.34 {
		t.Errorf("expected amount 12.34, got %v", trade.Amount)
	}
}

func TestFromDataAPITrade(t *testing.T) {
	row := data_api.Trade{
		ID:             "t1",
		ConditionID:    "0xcond3",
		TokenID:        "555",
		Outcome:        "Yes",
		Side:           "SELL",
		Price:          0.62,
		Size:           10,
		Timestamp:      1700000500,
		TxHash:         "0xddd",
		MarketSlug:     "some-market",
		MarketQuestion: "Will it happen?",
	}

	trade, diag := FromDataAPITrade(wallet, row)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideSell {
		t.Errorf("expected sell, got %s", trade.Side)
	}
	if trade.Amount != 6.2 {
		t.Errorf("expected amount 6.2, got %v", trade.Amount)
	}
	if trade.Price == nil || *trade.Price != 0.62 {
		t.Errorf("expected price 0.62, got %v", trade.Price)
	}
	if trade.MarketTitle == nil || *trade.MarketTitle != "Will it happen?" {
		t.Errorf("expected title, got %v", trade.MarketTitle)
	}
}

func TestFromDataAPITradeUnknownSideDefaultsToBuy(t *testing.T) {
	row := data_api.Trade{
		ID:        "t2",
		Side:      "MYSTERY",
		Price:     0.5,
		Size:      2,
		Timestamp: 1700000600,
		TxHash:    "0xeee",
	}

	trade, diag := FromDataAPITrade(wallet, row)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if trade.Side != models.SideBuy {
		t.Errorf("unknown side should collapse to buy, got %s", trade.Side)
	}
}

func TestFromDataAPITradeSyntheticHash(t *testing.T) {
	row := data_api.Trade{
		ID:        "t3",
		Side:      "BUY",
		Price:     0.1,
		Size:      1,
		Timestamp: 1700000700,
	}

	first, diag := FromDataAPITrade(wallet, row)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	second, _ := FromDataAPITrade(wallet, row)

	if !strings.HasPrefix(first.TxHash, SyntheticHashPrefix) {
		t.Errorf("expected synthetic prefix, got %s", first.TxHash)
	}
	if first.TxHash != second.TxHash {
		t.Errorf("synthetic hash not deterministic: %s vs %s", first.TxHash, second.TxHash)
	}

	row.ID = "t4"
	third, _ := FromDataAPITrade(wallet, row)
	if third.TxHash == first.TxHash {
		t.Error("distinct events must get distinct synthetic hashes")
	}
}

func TestFromDataAPITradeBadTimestamp(t *testing.T) {
	row := data_api.Trade{ID: "t5", Side: "BUY"}

	trade, diag := FromDataAPITrade(wallet, row)
	if trade != nil || diag == nil {
		t.Fatalf("expected diagnostic, got trade=%+v diag=%v", trade, diag)
	}
}
