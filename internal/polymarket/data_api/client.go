/**
 * @description
 * HTTP Client for the Polymarket Data API.
 * Fetches trader trades, positions, and PnL data.
 *
 * API Base URL: https://data-api.polymarket.com/
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package data_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harpoon-project/backend/internal/config"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultDataAPIURL = "https://data-api.polymarket.com"

	// MaxTradePageSize caps a single /trades page; history fetches paginate.
	MaxTradePageSize = 500
)

// Client for Polymarket Data API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Data API client
func NewClient(cfg *config.Config) *Client {
	baseURL := DefaultDataAPIURL
	if cfg.Polymarket.DataAPIURL != "" {
		baseURL = cfg.Polymarket.DataAPIURL
	}

	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// GetTrades fetches one page of trades for an address
// GET /trades?user={address}
func (c *Client) GetTrades(ctx context.Context, address string, params *TradesParams) ([]Trade, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/trades", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("user", strings.ToLower(address))

	if params != nil {
		if params.Limit > 0 {
			q.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Offset > 0 {
			q.Set("offset", strconv.Itoa(params.Offset))
		}
		if params.Before != "" {
			q.Set("before", params.Before)
		}
		if params.After != "" {
			q.Set("after", params.After)
		}
	}
	u.RawQuery = q.Encode()

	var trades []Trade
	if err := c.getJSON(ctx, u.String(), &trades); err != nil {
		return nil, err
	}

	return trades, nil
}

// GetAllTrades pages through /trades until a short page is returned.
func (c *Client) GetAllTrades(ctx context.Context, address string) ([]Trade, error) {
	var all []Trade
	offset := 0
	for {
		page, err := c.GetTrades(ctx, address, &TradesParams{Limit: MaxTradePageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < MaxTradePageSize {
			return all, nil
		}
		offset += MaxTradePageSize
	}
}

// GetPositions fetches open positions for an address
// GET /positions?user={address}
func (c *Client) GetPositions(ctx context.Context, address string, limit, offset int) ([]Position, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/positions", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("user", strings.ToLower(address))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()

	var positions []Position
	if err := c.getJSON(ctx, u.String(), &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

// GetClosedPositions fetches closed/resolved positions for an address
// GET /closed-positions?user={address}
func (c *Client) GetClosedPositions(ctx context.Context, address string, limit, offset int) ([]ClosedPosition, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/closed-positions", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("user", strings.ToLower(address))
	q.Set("sortBy", "REALIZEDPNL")
	q.Set("sortDirection", "DESC")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()

	var positions []ClosedPosition
	if err := c.getJSON(ctx, u.String(), &positions); err != nil {
		return nil, err
	}

	return positions, nil
}

// GetPnL aggregates realized PnL from closed positions and unrealized PnL
// from open positions. This is the primary P/L source; the trade-history
// computation in analytics is the fallback.
func (c *Client) GetPnL(ctx context.Context, address string) (*PnLData, error) {
	positions, err := c.GetPositions(ctx, address, 500, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	closedPositions, err := c.GetClosedPositions(ctx, address, 500, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get closed positions: %w", err)
	}

	var unrealizedPnL, realizedPnL float64
	for _, pos := range positions {
		unrealizedPnL += pos.UnrealizedPnL
		realizedPnL += pos.RealizedPnL
	}
	for _, pos := range closedPositions {
		realizedPnL += pos.RealizedPnL
	}

	return &PnLData{
		TotalPnL:      realizedPnL + unrealizedPnL,
		RealizedPnL:   realizedPnL,
		UnrealizedPnL: unrealizedPnL,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data api error: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
