/**
 * @description
 * GraphQL client for the Goldsky-hosted Polymarket subgraphs.
 * The orderbook subgraph serves CLOB order fills; the activity subgraph serves
 * on-chain splits, merges, and redemptions.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harpoon-project/backend/internal/config"
)

const (
	// DefaultTimeout covers one bulk subgraph query; these are the slow calls.
	DefaultTimeout = 30 * time.Second

	// BatchSize is the page size for subgraph queries; fetch loops stop on a
	// short page.
	BatchSize = 100
)

const orderFillsQuery = `
query GetOrderFills($user: String!, $first: Int!, $skip: Int!) {
  makerFills: orderFilledEvents(
    where: { maker: $user }
    orderBy: timestamp
    orderDirection: desc
    first: $first
    skip: $skip
  ) {
    id
    timestamp
    transactionHash
    maker
    taker
    makerAssetId
    takerAssetId
    makerAmountFilled
    takerAmountFilled
  }
  takerFills: orderFilledEvents(
    where: { taker: $user }
    orderBy: timestamp
    orderDirection: desc
    first: $first
    skip: $skip
  ) {
    id
    timestamp
    transactionHash
    maker
    taker
    makerAssetId
    takerAssetId
    makerAmountFilled
    takerAmountFilled
  }
}`

const activityQuery = `
query GetActivity($user: String!, $first: Int!, $skip: Int!) {
  splits(
    where: { stakeholder: $user }
    orderBy: timestamp
    orderDirection: desc
    first: $first
    skip: $skip
  ) {
    id
    timestamp
    stakeholder
    amount
    condition
  }
  merges(
    where: { stakeholder: $user }
    orderBy: timestamp
    orderDirection: desc
    first: $first
    skip: $skip
  ) {
    id
    timestamp
    stakeholder
    amount
    condition
  }
  redemptions(
    where: { redeemer: $user }
    orderBy: timestamp
    orderDirection: desc
    first: $first
    skip: $skip
  ) {
    id
    timestamp
    redeemer
    payout
    condition
  }
}`

// Client queries the orderbook and activity subgraphs.
type Client struct {
	OrdersURL   string
	ActivityURL string
	HTTPClient  *http.Client
}

// NewClient creates a new subgraph client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		OrdersURL:   cfg.Polymarket.OrdersSubgraphURL,
		ActivityURL: cfg.Polymarket.ActivitySubgraphURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchAllOrderFills pages through the orderbook subgraph and returns every
// fill where the wallet was maker or taker. The two legs may overlap on
// self-fills; deduplication happens downstream.
func (c *Client) FetchAllOrderFills(ctx context.Context, wallet string) ([]OrderFill, error) {
	wallet = strings.ToLower(wallet)

	var all []OrderFill
	skip := 0
	for {
		data, err := c.doQuery(ctx, c.OrdersURL, orderFillsQuery, map[string]any{
			"user":  wallet,
			"first": BatchSize,
			"skip":  skip,
		})
		if err != nil {
			return nil, fmt.Errorf("subgraph: fetch order fills: %w", err)
		}

		var page struct {
			MakerFills []OrderFill `json:"makerFills"`
			TakerFills []OrderFill `json:"takerFills"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("subgraph: decode order fills: %w", err)
		}

		if len(page.MakerFills) == 0 && len(page.TakerFills) == 0 {
			return all, nil
		}

		all = append(all, page.MakerFills...)
		all = append(all, page.TakerFills...)

		if len(page.MakerFills) < BatchSize && len(page.TakerFills) < BatchSize {
			return all, nil
		}
		skip += BatchSize
	}
}

// FetchAllActivity pages through the activity subgraph and returns every
// split, merge, and redemption for the wallet.
func (c *Client) FetchAllActivity(ctx context.Context, wallet string) (*Activity, error) {
	wallet = strings.ToLower(wallet)

	all := &Activity{}
	skip := 0
	for {
		data, err := c.doQuery(ctx, c.ActivityURL, activityQuery, map[string]any{
			"user":  wallet,
			"first": BatchSize,
			"skip":  skip,
		})
		if err != nil {
			return nil, fmt.Errorf("subgraph: fetch activity: %w", err)
		}

		var page Activity
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("subgraph: decode activity: %w", err)
		}

		if len(page.Splits) == 0 && len(page.Merges) == 0 && len(page.Redemptions) == 0 {
			return all, nil
		}

		all.Splits = append(all.Splits, page.Splits...)
		all.Merges = append(all.Merges, page.Merges...)
		all.Redemptions = append(all.Redemptions, page.Redemptions...)

		if len(page.Splits) < BatchSize && len(page.Merges) < BatchSize && len(page.Redemptions) < BatchSize {
			return all, nil
		}
		skip += BatchSize
	}
}

// doQuery executes a GraphQL query and returns the raw "data" field from the
// response.
func (c *Client) doQuery(ctx context.Context, endpoint, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}
