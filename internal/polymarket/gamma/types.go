/**
 * @description
 * Type definitions for the Polymarket Gamma API responses.
 * These structs map to the JSON returned by endpoints like /markets, /events,
 * and /public-search.
 */

package gamma

import (
	"encoding/json"
	"strconv"
	"time"
)

// GammaMarket represents a market object from the Gamma API
type GammaMarket struct {
	ID            string          `json:"id"`
	ConditionID   string          `json:"conditionId"`
	Slug          string          `json:"slug"`
	Question      string          `json:"question"`
	EndDate       string          `json:"endDate"`  // ISO string
	Outcomes      interface{}     `json:"outcomes"` // usually stringified JSON like '["Yes","No"]'
	OutcomePrices interface{}     `json:"outcomePrices"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
	ClosedTime    string          `json:"closedTime"`
	ClobTokenIds  interface{}     `json:"clobTokenIds"` // stringified JSON array of token IDs
	Events        []GammaEventRef `json:"events"`
}

// GammaEventRef is the event stub embedded in a market response
type GammaEventRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// GammaEvent represents an event object from the Gamma API
type GammaEvent struct {
	ID    string     `json:"id"`
	Slug  string     `json:"slug"`
	Title string     `json:"title"`
	Tags  []GammaTag `json:"tags"`
}

// GammaTag represents a tag object
type GammaTag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// Profile is a user profile returned by /public-search
type Profile struct {
	Name         string `json:"name"`
	Pseudonym    string `json:"pseudonym"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
	ProxyWallet  string `json:"proxyWallet"`
	CreatedAt    string `json:"createdAt"`
}

// SearchResponse is the /public-search envelope
type SearchResponse struct {
	Profiles []Profile `json:"profiles"`
}

// MarketInfo is the enrichment payload derived from a market lookup, keyed by
// the token or condition ID that was queried.
type MarketInfo struct {
	Question    string
	ConditionID string
	Slug        string
	Outcome     *string
	Tags        []string
	Closed      bool
	CloseTime   *time.Time
	OutcomeWon  *bool // nil when resolution state is indeterminate
}

// parseStringList handles Gamma's habit of returning arrays either as JSON
// arrays or as stringified JSON like "[\"Yes\", \"No\"]".
func parseStringList(v interface{}) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		var out []string
		if err := json.Unmarshal([]byte(val), &out); err != nil {
			return nil
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// parseCloseTime accepts the timestamp formats Gamma has been observed to
// return for closedTime.
func parseCloseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05Z07", "2006-01-02 15:04:05-07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func parseFloatString(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
