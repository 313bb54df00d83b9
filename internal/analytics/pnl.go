package analytics

import "github.com/harpoon-project/backend/internal/models"

// PnLSource identifies which computation produced a PnLReport.
type PnLSource string

const (
	// PnLSourcePositions is the primary source: the positions-aggregation
	// collaborator's realized + unrealized figures.
	PnLSourcePositions PnLSource = "positions"
	// PnLSourceTradeHistory is the fallback cross-check computed from the
	// stored trade set.
	PnLSourceTradeHistory PnLSource = "trade_history"
)

// PnLReport is the realized/unrealized profit-and-loss summary.
type PnLReport struct {
	Realized   float64   `json:"realized"`
	Unrealized float64   `json:"unrealized"`
	Total      float64   `json:"total"`
	Source     PnLSource `json:"source"`
}

// PnLFromPositions wraps the external positions collaborator's figures.
func PnLFromPositions(realized, unrealized float64) *PnLReport {
	return &PnLReport{
		Realized:   round2(realized),
		Unrealized: round2(unrealized),
		Total:      round2(realized + unrealized),
		Source:     PnLSourcePositions,
	}
}

// PnLFromTradeHistory computes realized earnings from the trade set alone:
// sells and redemptions collect, buys spend. Used when the positions source
// is unavailable.
func PnLFromTradeHistory(trades []models.Trade) *PnLReport {
	var realized float64
	for i := range trades {
		realized += trades[i].SignedAmount()
	}
	return &PnLReport{
		Realized: round2(realized),
		Total:    round2(realized),
		Source:   PnLSourceTradeHistory,
	}
}
