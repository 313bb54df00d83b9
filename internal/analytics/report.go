/**
 * @description
 * Analytics Engine: derived reports computed over a wallet's complete stored
 * trade set. Read-only; every aggregate has a defined null/zero result for
 * empty input and never returns an error.
 *
 * @dependencies
 * - backend/internal/models
 */

package analytics

import "math"

// Report bundles the four independent analytics for a wallet.
type Report struct {
	PnL        *PnLReport      `json:"pnl"`
	Timezone   *TimezoneReport `json:"timezone"`
	Categories *CategoryReport `json:"categories"`
	// Insider is absent entirely (not zero-filled) when no trade qualifies.
	Insider *InsiderReport `json:"insider_patterns,omitempty"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
