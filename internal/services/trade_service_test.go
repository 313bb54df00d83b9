package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harpoon-project/backend/internal/analytics"
	"github.com/harpoon-project/backend/internal/apperr"
	"github.com/harpoon-project/backend/internal/models"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
)

const testWallet = "0xabcd000000000000000000000000000000000001"

type fakeStore struct {
	trades    []models.Trade
	watermark *models.CacheWatermark
}

func (f *fakeStore) UpsertTrade(ctx context.Context, trade *models.Trade) error {
	for _, existing := range f.trades {
		if existing.TxHash == trade.TxHash {
			return nil
		}
	}
	f.trades = append(f.trades, *trade)
	return nil
}

func (f *fakeStore) GetWatermark(ctx context.Context, wallet string) (*models.CacheWatermark, error) {
	return f.watermark, nil
}

func (f *fakeStore) UpsertWatermark(ctx context.Context, wallet string, fetchedAt time.Time, lastBlock *int64) error {
	f.watermark = &models.CacheWatermark{
		WalletAddress:   wallet,
		LastFetched:     fetchedAt,
		LastBlockNumber: lastBlock,
	}
	return nil
}

func (f *fakeStore) ListTrades(ctx context.Context, wallet string, offset, limit int) ([]models.Trade, error) {
	if offset >= len(f.trades) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.trades) {
		end = len(f.trades)
	}
	return f.trades[offset:end], nil
}

func (f *fakeStore) ListAllTrades(ctx context.Context, wallet string) ([]models.Trade, error) {
	return f.trades, nil
}

func (f *fakeStore) CountTrades(ctx context.Context, wallet string) (int64, error) {
	return int64(len(f.trades)), nil
}

func (f *fakeStore) DeleteWallet(ctx context.Context, wallet string) error {
	f.trades = nil
	f.watermark = nil
	return nil
}

func (f *fakeStore) DeleteAll(ctx context.Context) error {
	f.trades = nil
	f.watermark = nil
	return nil
}

// newTestService wires a TradeService against httptest upstreams.
func newTestService(store TradeStore, dataAPIURL, gammaURL, ordersURL, activityURL string) *TradeService {
	httpClient := &http.Client{Timeout: 5 * time.Second}
	return NewTradeService(
		store,
		&data_api.Client{BaseURL: dataAPIURL, HTTPClient: httpClient},
		&gamma.Client{BaseURL: gammaURL, HTTPClient: httpClient},
		&subgraph.Client{OrdersURL: ordersURL, ActivityURL: activityURL, HTTPClient: httpClient},
		5*time.Minute,
	)
}

func TestShouldRefresh(t *testing.T) {
	svc := &TradeService{cacheTTL: 5 * time.Minute}
	now := time.Now().UTC()

	if !svc.shouldRefresh(nil, now) {
		t.Error("never-fetched wallet must refresh")
	}

	fresh := &models.CacheWatermark{LastFetched: now.Add(-3 * time.Minute)}
	if svc.shouldRefresh(fresh, now) {
		t.Error("watermark inside TTL must not refresh")
	}

	stale := &models.CacheWatermark{LastFetched: now.Add(-6 * time.Minute)}
	if !svc.shouldRefresh(stale, now) {
		t.Error("watermark past TTL must refresh")
	}
}

func TestRefreshWalletFromDataAPI(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trades" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[{"id":"t1","side":"BUY","price":0.5,"size":10,"timestamp":1700000000,"transactionHash":"0xabc","conditionId":"0xc1","asset":"555","title":"Will it happen?","slug":"will-it","outcome":"Yes"}]`)
	}))
	defer dataSrv.Close()

	gammaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer gammaSrv.Close()

	subgraphSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("subgraph must not be queried when the data api has trades")
		http.Error(w, "unexpected", http.StatusInternalServerError)
	}))
	defer subgraphSrv.Close()

	store := &fakeStore{}
	svc := newTestService(store, dataSrv.URL, gammaSrv.URL, subgraphSrv.URL, subgraphSrv.URL)

	if err := svc.RefreshWallet(context.Background(), testWallet); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if len(store.trades) != 1 {
		t.Fatalf("expected 1 stored trade, got %d", len(store.trades))
	}
	trade := store.trades[0]
	if trade.TxHash != "0xabc" {
		t.Errorf("expected tx 0xabc, got %s", trade.TxHash)
	}
	if trade.Amount != 5.0 {
		t.Errorf("expected amount 5.0, got %v", trade.Amount)
	}
	if store.watermark == nil {
		t.Fatal("watermark must advance after a successful refresh")
	}
}

func TestRefreshWalletSubgraphFallback(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer dataSrv.Close()

	gammaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer gammaSrv.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"makerFills":[{"id":"f1","timestamp":"1700000000","transactionHash":"0xf1","maker":%q,"taker":"0x02","makerAssetId":"0","takerAssetId":"777","makerAmountFilled":"5000000","takerAmountFilled":"10000000"}],"takerFills":[]}}`, testWallet)
	})
	mux.HandleFunc("/activity", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"splits":[],"merges":[],"redemptions":[{"id":"0xr1_0","timestamp":"1700000100","redeemer":"0x01","payout":"3000000","condition":"0xc2"}]}}`)
	})
	subgraphSrv := httptest.NewServer(mux)
	defer subgraphSrv.Close()

	store := &fakeStore{}
	svc := newTestService(store, dataSrv.URL, gammaSrv.URL, subgraphSrv.URL+"/orders", subgraphSrv.URL+"/activity")

	if err := svc.RefreshWallet(context.Background(), testWallet); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if len(store.trades) != 2 {
		t.Fatalf("expected 2 stored trades, got %d", len(store.trades))
	}

	byHash := make(map[string]models.Trade)
	for _, trade := range store.trades {
		byHash[trade.TxHash] = trade
	}
	if fill, ok := byHash["0xf1"]; !ok || fill.Side != models.SideBuy {
		t.Errorf("expected order fill stored as buy, got %+v", fill)
	}
	if redemption, ok := byHash["0xr1"]; !ok || redemption.Side != models.SideRedeem || redemption.Amount != 3.0 {
		t.Errorf("expected redemption of 3.0 stored, got %+v", redemption)
	}
}

func TestRefreshWalletUpstreamFailure(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer dataSrv.Close()

	store := &fakeStore{}
	svc := newTestService(store, dataSrv.URL, dataSrv.URL, dataSrv.URL, dataSrv.URL)

	err := svc.RefreshWallet(context.Background(), testWallet)
	if err == nil {
		t.Fatal("expected an error")
	}
	var upErr *apperr.UpstreamFetchError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamFetchError, got %T", err)
	}
	if upErr.Source != "data-api" {
		t.Errorf("expected data-api source, got %s", upErr.Source)
	}
	if store.watermark != nil {
		t.Error("failed refresh must not advance the watermark")
	}
	if len(store.trades) != 0 {
		t.Errorf("failed refresh must not store trades, got %d", len(store.trades))
	}
}

func TestGetTradeHistoryServesCacheWhenRefreshFails(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer dataSrv.Close()

	store := &fakeStore{
		trades: []models.Trade{
			{TxHash: "0xcached", WalletAddress: testWallet, Side: models.SideSell, Amount: 7, Timestamp: time.Now().UTC()},
		},
		watermark: &models.CacheWatermark{
			WalletAddress: testWallet,
			LastFetched:   time.Now().UTC().Add(-time.Hour),
		},
	}
	svc := newTestService(store, dataSrv.URL, dataSrv.URL, dataSrv.URL, dataSrv.URL)

	page, err := svc.GetTradeHistory(context.Background(), testWallet, 1, 50)
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}
	if !page.Stale {
		t.Error("degraded response must be marked stale")
	}
	if page.TotalCount != 1 || len(page.Trades) != 1 {
		t.Fatalf("expected the cached trade, got count=%d len=%d", page.TotalCount, len(page.Trades))
	}
	if page.TotalEarnings != 7.0 {
		t.Errorf("expected total earnings 7.0, got %v", page.TotalEarnings)
	}
	if page.Analytics == nil || page.Analytics.PnL == nil {
		t.Fatal("analytics must still be computed over the cached set")
	}
	if page.Analytics.PnL.Source != analytics.PnLSourceTradeHistory {
		t.Errorf("PnL must fall back to trade history, got %s", page.Analytics.PnL.Source)
	}
}

func TestGetTradeHistoryFailsWithEmptyCache(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer dataSrv.Close()

	store := &fakeStore{}
	svc := newTestService(store, dataSrv.URL, dataSrv.URL, dataSrv.URL, dataSrv.URL)

	if _, err := svc.GetTradeHistory(context.Background(), testWallet, 1, 50); err == nil {
		t.Fatal("with nothing cached the refresh error must surface")
	}
}

func TestGetTradeHistoryPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/closed-positions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	dataSrv := httptest.NewServer(mux)
	defer dataSrv.Close()

	now := time.Now().UTC()
	store := &fakeStore{
		trades: []models.Trade{
			{TxHash: "0x1", Side: models.SideBuy, Amount: 1, Timestamp: now},
			{TxHash: "0x2", Side: models.SideBuy, Amount: 1, Timestamp: now.Add(-time.Minute)},
			{TxHash: "synthetic-0000", Side: models.SideBuy, Amount: 1, Timestamp: now.Add(-2 * time.Minute)},
		},
		watermark: &models.CacheWatermark{WalletAddress: testWallet, LastFetched: now},
	}
	svc := newTestService(store, dataSrv.URL, dataSrv.URL, dataSrv.URL, dataSrv.URL)

	page, err := svc.GetTradeHistory(context.Background(), testWallet, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 2 || page.Limit != 2 {
		t.Errorf("expected page=2 limit=2, got %d/%d", page.Page, page.Limit)
	}
	if len(page.Trades) != 1 {
		t.Fatalf("expected 1 trade on page 2, got %d", len(page.Trades))
	}
	if page.TotalCount != 3 {
		t.Errorf("expected total 3, got %d", page.TotalCount)
	}

	view := page.Trades[0]
	if view.TxHash != "synthetic-0000" {
		t.Errorf("expected the synthetic trade on page 2, got %s", view.TxHash)
	}
	if view.PolygonscanURL != "" {
		t.Errorf("synthetic hashes must not link to polygonscan, got %s", view.PolygonscanURL)
	}
	if page.Stale {
		t.Error("fresh watermark must not be marked stale")
	}
}

func TestClearCaches(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{
		trades:    []models.Trade{{TxHash: "0x1", WalletAddress: testWallet, Timestamp: now}},
		watermark: &models.CacheWatermark{WalletAddress: testWallet, LastFetched: now},
	}
	svc := NewTradeService(store, nil, nil, nil, 5*time.Minute)

	if err := svc.ClearWalletCache(context.Background(), strings.ToUpper(testWallet)); err != nil {
		t.Fatalf("clear wallet cache failed: %v", err)
	}
	if len(store.trades) != 0 || store.watermark != nil {
		t.Error("per-wallet clear must drop the wallet's trades and watermark")
	}

	store.trades = []models.Trade{{TxHash: "0x2", WalletAddress: testWallet, Timestamp: now}}
	store.watermark = &models.CacheWatermark{WalletAddress: testWallet, LastFetched: now}

	if err := svc.ClearAllCaches(context.Background()); err != nil {
		t.Fatalf("clear all caches failed: %v", err)
	}
	if len(store.trades) != 0 || store.watermark != nil {
		t.Error("full clear must drop every trade and watermark")
	}
}

func TestTradeViewPolygonscanURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/closed-positions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	dataSrv := httptest.NewServer(mux)
	defer dataSrv.Close()

	now := time.Now().UTC()
	store := &fakeStore{
		trades:    []models.Trade{{TxHash: "0xreal", Side: models.SideSell, Amount: 2, Timestamp: now}},
		watermark: &models.CacheWatermark{WalletAddress: testWallet, LastFetched: now},
	}
	svc := newTestService(store, dataSrv.URL, dataSrv.URL, dataSrv.URL, dataSrv.URL)

	page, err := svc.GetTradeHistory(context.Background(), testWallet, 1, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := page.Trades[0].PolygonscanURL; !strings.HasSuffix(got, "/tx/0xreal") {
		t.Errorf("expected polygonscan link, got %q", got)
	}
}
