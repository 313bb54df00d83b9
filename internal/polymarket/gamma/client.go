/**
 * @description
 * HTTP Client for the Polymarket Gamma API.
 * Fetches market metadata, event tags, and user profiles.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package gamma

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
	DefaultTimeout = 10 * time.Second
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: cfg.Polymarket.GammaURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// GetMarketInfoByToken looks up the market a CLOB token belongs to and derives
// the enrichment fields for that token: outcome label, event tags, resolution
// state. OutcomeWon stays nil unless the market is closed and the token's
// outcome price parses.
// GET /markets?clob_token_ids={tokenID}
func (c *Client) GetMarketInfoByToken(ctx context.Context, tokenID string) (*MarketInfo, error) {
	markets, err := c.getMarkets(ctx, "clob_token_ids", tokenID)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, nil
	}
	market := markets[0]

	info := &MarketInfo{
		Question:    market.Question,
		ConditionID: market.ConditionID,
		Slug:        market.Slug,
		Closed:      market.Closed,
	}

	outcomes := parseStringList(market.Outcomes)
	tokenIDs := parseStringList(market.ClobTokenIds)
	prices := parseStringList(market.OutcomePrices)

	for idx, id := range tokenIDs {
		if id != tokenID {
			continue
		}
		if idx < len(outcomes) {
			outcome := outcomes[idx]
			info.Outcome = &outcome
		}
		// Price "1" on a closed market means this outcome won.
		if market.Closed && idx < len(prices) {
			if p, ok := parseFloatString(prices[idx]); ok {
				won := p == 1.0
				info.OutcomeWon = &won
			}
		}
		break
	}

	if market.Closed {
		info.CloseTime = parseCloseTime(market.ClosedTime)
	}

	if len(market.Events) > 0 && market.Events[0].ID != "" {
		tags, err := c.GetEventTags(ctx, market.Events[0].ID)
		if err == nil {
			info.Tags = tags
		}
	}

	return info, nil
}

// GetMarketInfoByCondition looks up a market by its condition ID. Used to
// backfill titles for split/merge/redemption rows, which carry no token ID.
// GET /markets?condition_ids={conditionID}
func (c *Client) GetMarketInfoByCondition(ctx context.Context, conditionID string) (*MarketInfo, error) {
	markets, err := c.getMarkets(ctx, "condition_ids", conditionID)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, nil
	}
	market := markets[0]

	info := &MarketInfo{
		Question:    market.Question,
		ConditionID: market.ConditionID,
		Slug:        market.Slug,
		Closed:      market.Closed,
	}
	if market.Closed {
		info.CloseTime = parseCloseTime(market.ClosedTime)
	}
	return info, nil
}

// GetEventTags fetches the tag labels of an event
// GET /events/{id}
func (c *Client) GetEventTags(ctx context.Context, eventID string) ([]string, error) {
	u := fmt.Sprintf("%s/events/%s", c.BaseURL, url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma api error: status %d", resp.StatusCode)
	}

	// The endpoint returns either one event object or a one-element array.
	body := json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var event GammaEvent
	if err := json.Unmarshal(body, &event); err != nil {
		var events []GammaEvent
		if err := json.Unmarshal(body, &events); err != nil || len(events) == 0 {
			return nil, fmt.Errorf("gamma api: unexpected event payload")
		}
		event = events[0]
	}

	labels := make([]string, 0, len(event.Tags))
	for _, tag := range event.Tags {
		if tag.Label != "" {
			labels = append(labels, tag.Label)
		}
	}
	return labels, nil
}

// SearchProfiles queries Gamma's /public-search endpoint focusing on user profiles.
func (c *Client) SearchProfiles(ctx context.Context, query string, limit int) ([]Profile, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	if limit <= 0 {
		limit = 1
	}

	u, err := url.Parse(fmt.Sprintf("%s/public-search", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("search_profiles", "true")
	q.Set("limit_per_type", strconv.Itoa(limit))
	q.Set("cache", "false")
	q.Set("optimized", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma search error: status %d", resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, err
	}

	return searchResp.Profiles, nil
}

func (c *Client) getMarkets(ctx context.Context, param, value string) ([]GammaMarket, error) {
	u, err := url.Parse(fmt.Sprintf("%s/markets", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma api error: status %d", resp.StatusCode)
	}

	var markets []GammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, err
	}

	return markets, nil
}
