/**
 * @description
 * Trade history orchestration: decides when a wallet's cached history is
 * stale, refreshes it from the Data API or the subgraphs, enriches it with
 * Gamma market metadata, and assembles the paginated history response with
 * its analytics.
 *
 * @dependencies
 * - backend/internal/store
 * - backend/internal/polymarket/data_api
 * - backend/internal/polymarket/gamma
 * - backend/internal/polymarket/subgraph
 * - backend/internal/normalize
 * - backend/internal/aggregate
 * - backend/internal/analytics
 * - golang.org/x/sync/errgroup: bounded metadata fan-out
 */

package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/harpoon-project/backend/internal/aggregate"
	"github.com/harpoon-project/backend/internal/analytics"
	"github.com/harpoon-project/backend/internal/apperr"
	"github.com/harpoon-project/backend/internal/logger"
	"github.com/harpoon-project/backend/internal/models"
	"github.com/harpoon-project/backend/internal/normalize"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
	"golang.org/x/sync/errgroup"
)

const (
	// gammaLookupLimit bounds concurrent Gamma metadata requests per refresh.
	gammaLookupLimit = 5

	polygonscanTxURL = "https://polygonscan.com/tx/"
)

// TradeStore is the persistence surface the service needs.
type TradeStore interface {
	UpsertTrade(ctx context.Context, trade *models.Trade) error
	GetWatermark(ctx context.Context, wallet string) (*models.CacheWatermark, error)
	UpsertWatermark(ctx context.Context, wallet string, fetchedAt time.Time, lastBlock *int64) error
	ListTrades(ctx context.Context, wallet string, offset, limit int) ([]models.Trade, error)
	ListAllTrades(ctx context.Context, wallet string) ([]models.Trade, error)
	CountTrades(ctx context.Context, wallet string) (int64, error)
	DeleteWallet(ctx context.Context, wallet string) error
	DeleteAll(ctx context.Context) error
}

// TradeService owns the cache-or-refresh policy for wallet trade histories.
type TradeService struct {
	store          TradeStore
	dataAPIClient  *data_api.Client
	gammaClient    *gamma.Client
	subgraphClient *subgraph.Client
	cacheTTL       time.Duration
}

// NewTradeService creates a new TradeService
func NewTradeService(store TradeStore, dataAPIClient *data_api.Client, gammaClient *gamma.Client, subgraphClient *subgraph.Client, cacheTTL time.Duration) *TradeService {
	return &TradeService{
		store:          store,
		dataAPIClient:  dataAPIClient,
		gammaClient:    gammaClient,
		subgraphClient: subgraphClient,
		cacheTTL:       cacheTTL,
	}
}

// TradeView is one trade as served to clients: the stored record plus its
// block explorer link. Synthetic hashes get no link.
type TradeView struct {
	models.Trade
	PolygonscanURL string `json:"polygonscan_url,omitempty"`
}

// TradeHistoryPage is the assembled response for one history request.
type TradeHistoryPage struct {
	Address       string            `json:"address"`
	Profile       *gamma.Profile    `json:"profile,omitempty"`
	Trades        []TradeView       `json:"trades"`
	TotalCount    int64             `json:"total_count"`
	Page          int               `json:"page"`
	Limit         int               `json:"limit"`
	TotalEarnings float64           `json:"total_earnings"`
	Stale         bool              `json:"stale"`
	Analytics     *analytics.Report `json:"analytics"`
}

// shouldRefresh is the cache policy: refresh when the wallet has never been
// fetched or its watermark is older than the TTL.
func (s *TradeService) shouldRefresh(wm *models.CacheWatermark, now time.Time) bool {
	if wm == nil {
		return true
	}
	return now.Sub(wm.LastFetched) > s.cacheTTL
}

// RefreshWallet re-fetches the wallet's history from upstream, normalizes it,
// and persists it. The Data API is authoritative when it has any trades;
// only an empty Data API response falls through to the subgraphs. The
// watermark advances only after every trade is stored.
func (s *TradeService) RefreshWallet(ctx context.Context, wallet string) error {
	wallet = strings.ToLower(wallet)

	canonical, err := s.fetchCanonical(ctx, wallet)
	if err != nil {
		return err
	}

	s.enrichTrades(ctx, canonical)

	merged := aggregate.Merge(canonical)
	for i := range merged {
		if err := s.store.UpsertTrade(ctx, &merged[i]); err != nil {
			return err
		}
	}

	var lastBlock *int64
	for i := range merged {
		if bn := merged[i].BlockNumber; bn != nil {
			if lastBlock == nil || *bn > *lastBlock {
				lastBlock = bn
			}
		}
	}

	return s.store.UpsertWatermark(ctx, wallet, time.Now().UTC(), lastBlock)
}

// fetchCanonical pulls raw events from whichever source applies and
// normalizes them. Rows the normalizer rejects are logged and skipped,
// never fatal.
func (s *TradeService) fetchCanonical(ctx context.Context, wallet string) ([]models.Trade, error) {
	dataTrades, err := s.dataAPIClient.GetAllTrades(ctx, wallet)
	if err != nil {
		return nil, &apperr.UpstreamFetchError{Source: "data-api", Err: err}
	}

	var canonical []models.Trade
	if len(dataTrades) > 0 {
		for _, dt := range dataTrades {
			trade, diag := normalize.FromDataAPITrade(wallet, dt)
			if diag != nil {
				logger.Error("TradeService: %s", diag)
				continue
			}
			canonical = append(canonical, *trade)
		}
		return canonical, nil
	}

	// No Data API history: fall back to on-chain sources.
	fills, err := s.subgraphClient.FetchAllOrderFills(ctx, wallet)
	if err != nil {
		return nil, &apperr.UpstreamFetchError{Source: "orders-subgraph", Err: err}
	}
	activity, err := s.subgraphClient.FetchAllActivity(ctx, wallet)
	if err != nil {
		return nil, &apperr.UpstreamFetchError{Source: "activity-subgraph", Err: err}
	}

	for _, fill := range fills {
		trade, diag := normalize.FromOrderFill(wallet, fill)
		if diag != nil {
			logger.Error("TradeService: %s", diag)
			continue
		}
		canonical = append(canonical, *trade)
	}
	for _, split := range activity.Splits {
		trade, diag := normalize.FromSplit(wallet, split)
		if diag != nil {
			logger.Error("TradeService: %s", diag)
			continue
		}
		canonical = append(canonical, *trade)
	}
	for _, merge := range activity.Merges {
		trade, diag := normalize.FromMerge(wallet, merge)
		if diag != nil {
			logger.Error("TradeService: %s", diag)
			continue
		}
		canonical = append(canonical, *trade)
	}
	for _, redemption := range activity.Redemptions {
		trade, diag := normalize.FromRedemption(wallet, redemption)
		if diag != nil {
			logger.Error("TradeService: %s", diag)
			continue
		}
		canonical = append(canonical, *trade)
	}

	return canonical, nil
}

// enrichTrades fills market metadata (title, outcome, tags, resolution) from
// Gamma, keyed by token ID where available and by condition ID otherwise.
// Lookups fan out with bounded concurrency; failures leave the trade's
// metadata empty rather than failing the refresh.
func (s *TradeService) enrichTrades(ctx context.Context, trades []models.Trade) {
	tokenIDs := make(map[string]struct{})
	conditionIDs := make(map[string]struct{})
	for i := range trades {
		trade := &trades[i]
		if trade.TokenID != nil && *trade.TokenID != "" {
			tokenIDs[*trade.TokenID] = struct{}{}
		} else if trade.MarketID != nil && *trade.MarketID != "" && trade.MarketTitle == nil {
			conditionIDs[*trade.MarketID] = struct{}{}
		}
	}
	if len(tokenIDs) == 0 && len(conditionIDs) == 0 {
		return
	}

	var mu sync.Mutex
	byToken := make(map[string]*gamma.MarketInfo)
	byCondition := make(map[string]*gamma.MarketInfo)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gammaLookupLimit)
	for tokenID := range tokenIDs {
		tokenID := tokenID
		g.Go(func() error {
			info, err := s.gammaClient.GetMarketInfoByToken(gctx, tokenID)
			if err != nil {
				logger.Error("TradeService: Gamma lookup failed for token %s: %v", tokenID, err)
				return nil
			}
			mu.Lock()
			byToken[tokenID] = info
			mu.Unlock()
			return nil
		})
	}
	for conditionID := range conditionIDs {
		conditionID := conditionID
		g.Go(func() error {
			info, err := s.gammaClient.GetMarketInfoByCondition(gctx, conditionID)
			if err != nil {
				logger.Error("TradeService: Gamma lookup failed for condition %s: %v", conditionID, err)
				return nil
			}
			mu.Lock()
			byCondition[conditionID] = info
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	for i := range trades {
		trade := &trades[i]
		var info *gamma.MarketInfo
		if trade.TokenID != nil {
			info = byToken[*trade.TokenID]
		} else if trade.MarketID != nil {
			info = byCondition[*trade.MarketID]
		}
		if info == nil {
			continue
		}
		applyMarketInfo(trade, info)
	}
}

func applyMarketInfo(trade *models.Trade, info *gamma.MarketInfo) {
	if trade.MarketTitle == nil && info.Question != "" {
		title := info.Question
		trade.MarketTitle = &title
	}
	if trade.MarketSlug == nil && info.Slug != "" {
		slug := info.Slug
		trade.MarketSlug = &slug
	}
	if trade.MarketID == nil && info.ConditionID != "" {
		conditionID := info.ConditionID
		trade.MarketID = &conditionID
	}
	if trade.Outcome == nil && info.Outcome != nil {
		trade.Outcome = info.Outcome
	}
	if trade.Tags == nil && len(info.Tags) > 0 {
		tags := strings.Join(info.Tags, ",")
		trade.Tags = &tags
	}
	if info.Closed {
		trade.Closed = true
	}
	if trade.CloseTime == nil {
		trade.CloseTime = info.CloseTime
	}
	if trade.OutcomeWon == nil {
		trade.OutcomeWon = info.OutcomeWon
	}
}

// GetTradeHistory serves one page of the wallet's history plus analytics
// computed over the complete stored set. A failed refresh with cached rows
// present degrades to serving the cache, marked stale; with nothing cached
// the refresh error is surfaced.
func (s *TradeService) GetTradeHistory(ctx context.Context, wallet string, page, limit int) (*TradeHistoryPage, error) {
	wallet = strings.ToLower(wallet)

	wm, err := s.store.GetWatermark(ctx, wallet)
	if err != nil {
		return nil, err
	}

	stale := false
	if s.shouldRefresh(wm, time.Now().UTC()) {
		if err := s.RefreshWallet(ctx, wallet); err != nil {
			count, countErr := s.store.CountTrades(ctx, wallet)
			if countErr != nil || count == 0 {
				return nil, err
			}
			logger.Error("TradeService: Refresh failed for %s, serving cached history: %v", wallet, err)
			stale = true
		}
	}

	total, err := s.store.CountTrades(ctx, wallet)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	pageTrades, err := s.store.ListTrades(ctx, wallet, offset, limit)
	if err != nil {
		return nil, err
	}

	all, err := s.store.ListAllTrades(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var totalEarnings float64
	for i := range all {
		totalEarnings += all[i].SignedAmount()
	}

	views := make([]TradeView, 0, len(pageTrades))
	for _, trade := range pageTrades {
		view := TradeView{Trade: trade}
		if !strings.HasPrefix(trade.TxHash, normalize.SyntheticHashPrefix) {
			view.PolygonscanURL = polygonscanTxURL + trade.TxHash
		}
		views = append(views, view)
	}

	return &TradeHistoryPage{
		Address:       wallet,
		Trades:        views,
		TotalCount:    total,
		Page:          page,
		Limit:         limit,
		TotalEarnings: normalize.Round2(totalEarnings),
		Stale:         stale,
		Analytics:     s.buildAnalytics(ctx, wallet, all),
	}, nil
}

// ClearWalletCache drops the wallet's stored trades and watermark so the next
// history request re-fetches from scratch.
func (s *TradeService) ClearWalletCache(ctx context.Context, wallet string) error {
	return s.store.DeleteWallet(ctx, strings.ToLower(wallet))
}

// ClearAllCaches drops every wallet's stored trades and watermarks.
func (s *TradeService) ClearAllCaches(ctx context.Context) error {
	return s.store.DeleteAll(ctx)
}

// buildAnalytics computes the four reports over the complete trade set. P/L
// prefers the Data API positions figures and falls back to the trade set
// when that call fails.
func (s *TradeService) buildAnalytics(ctx context.Context, wallet string, all []models.Trade) *analytics.Report {
	report := &analytics.Report{
		Timezone:   analytics.InferTimezone(all),
		Categories: analytics.CategoryBreakdown(all),
		Insider:    analytics.InsiderPatterns(all),
	}

	pnlData, err := s.dataAPIClient.GetPnL(ctx, wallet)
	if err != nil {
		logger.Error("TradeService: PnL fetch failed for %s, using trade history: %v", wallet, err)
		report.PnL = analytics.PnLFromTradeHistory(all)
	} else {
		report.PnL = analytics.PnLFromPositions(pnlData.RealizedPnL, pnlData.UnrealizedPnL)
	}
	return report
}
