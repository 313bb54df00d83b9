/**
 * @description
 * Type definitions for Polymarket Data API responses.
 * These structs map to the JSON returned by endpoints like /trades, /positions,
 * and /closed-positions.
 *
 * API Base URL: https://data-api.polymarket.com/
 */

package data_api

import "time"

// Trade represents a single trade from the /trades endpoint
type Trade struct {
	ID             string  `json:"id"`
	ConditionID    string  `json:"conditionId"`
	TokenID        string  `json:"asset"`
	Outcome        string  `json:"outcome"`
	Side           string  `json:"side"` // BUY or SELL
	Price          float64 `json:"price"`
	Size           float64 `json:"size"`
	Timestamp      int64   `json:"timestamp"` // unix seconds
	TxHash         string  `json:"transactionHash"`
	ProxyWallet    string  `json:"proxyWallet"`
	MarketSlug     string  `json:"slug"`
	MarketQuestion string  `json:"title"`
	EventSlug      string  `json:"eventSlug"`
}

// Time returns the trade timestamp as a UTC instant.
func (t Trade) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

// Position represents a user's current open position
type Position struct {
	Asset          string  `json:"asset"`
	ConditionID    string  `json:"conditionId"`
	Outcome        string  `json:"outcome"`
	Size           float64 `json:"size"`
	AveragePrice   float64 `json:"avgPrice"`
	CurrentPrice   float64 `json:"curPrice"`
	InitialValue   float64 `json:"initialValue"`
	CurrentValue   float64 `json:"currentValue"`
	CashPnL        float64 `json:"cashPnl"`
	RealizedPnL    float64 `json:"realizedPnl"`
	UnrealizedPnL  float64 `json:"unrealizedPnl"`
	MarketSlug     string  `json:"slug"`
	MarketQuestion string  `json:"question"`
}

// ClosedPosition represents a user's closed/resolved position
type ClosedPosition struct {
	Asset          string  `json:"asset"`
	ConditionID    string  `json:"conditionId"`
	Outcome        string  `json:"outcome"`
	Size           float64 `json:"size"`
	AveragePrice   float64 `json:"avgPrice"`
	ExitPrice      float64 `json:"exitPrice"`
	InitialValue   float64 `json:"initialValue"`
	ExitValue      float64 `json:"exitValue"`
	RealizedPnL    float64 `json:"realizedPnl"`
	MarketSlug     string  `json:"slug"`
	MarketQuestion string  `json:"question"`
	Resolved       bool    `json:"resolved"`
	Winner         bool    `json:"winner"`
}

// PnLData aggregates realized and unrealized profit/loss for a wallet
type PnLData struct {
	TotalPnL      float64 `json:"totalPnl"`
	RealizedPnL   float64 `json:"realizedPnl"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
}

// TradesParams query parameters for /trades endpoint
type TradesParams struct {
	Limit  int
	Offset int
	Before string // ISO timestamp
	After  string // ISO timestamp
}
