package analytics

import "github.com/harpoon-project/backend/internal/models"

// contrarianThreshold marks entries priced below even odds.
const contrarianThreshold = 0.5

// InsiderReport measures how a wallet's resolved buy entries performed
// against their implied probabilities, and how close to market close they
// were placed.
type InsiderReport struct {
	SampleSize int `json:"sample_size"`

	// Win rates are percentages; expected treats entry price as implied
	// probability.
	ActualWinRate   float64 `json:"actual_win_rate"`
	ExpectedWinRate float64 `json:"expected_win_rate"`
	Edge            float64 `json:"edge"`

	ContrarianCount   int     `json:"contrarian_count"`
	ContrarianWins    int     `json:"contrarian_wins"`
	ContrarianWinRate float64 `json:"contrarian_win_rate"`

	TradesWithin24hOfClose int      `json:"trades_within_24h_of_close"`
	TradesWithin1hOfClose  int      `json:"trades_within_1h_of_close"`
	MeanHoursBeforeClose   *float64 `json:"mean_hours_before_close"`
}

// InsiderPatterns computes the insider-signal metrics over buy trades on
// closed markets with a known outcome and price. Returns nil when no trade
// qualifies.
func InsiderPatterns(trades []models.Trade) *InsiderReport {
	var (
		sampleSize     int
		wins           int
		priceSum       float64
		contrarian     int
		contrarianWins int
		hoursSum       float64
		hoursCount     int
		within24h      int
		within1h       int
	)

	for i := range trades {
		trade := &trades[i]
		if trade.Side != models.SideBuy || !trade.Closed || trade.OutcomeWon == nil || trade.Price == nil {
			continue
		}

		sampleSize++
		priceSum += *trade.Price
		if *trade.OutcomeWon {
			wins++
		}

		if *trade.Price < contrarianThreshold {
			contrarian++
			if *trade.OutcomeWon {
				contrarianWins++
			}
		}

		if trade.CloseTime != nil {
			hours := trade.CloseTime.Sub(trade.Timestamp).Hours()
			// Trades timestamped after close carry no timing signal.
			if hours >= 0 {
				hoursSum += hours
				hoursCount++
				if hours <= 24 {
					within24h++
				}
				if hours <= 1 {
					within1h++
				}
			}
		}
	}

	if sampleSize == 0 {
		return nil
	}

	report := &InsiderReport{
		SampleSize:             sampleSize,
		ActualWinRate:          round1(float64(wins) / float64(sampleSize) * 100),
		ExpectedWinRate:        round1(priceSum / float64(sampleSize) * 100),
		ContrarianCount:        contrarian,
		ContrarianWins:         contrarianWins,
		TradesWithin24hOfClose: within24h,
		TradesWithin1hOfClose:  within1h,
	}
	report.Edge = round1(report.ActualWinRate - report.ExpectedWinRate)
	if contrarian > 0 {
		report.ContrarianWinRate = round1(float64(contrarianWins) / float64(contrarian) * 100)
	}
	if hoursCount > 0 {
		mean := round1(hoursSum / float64(hoursCount))
		report.MeanHoursBeforeClose = &mean
	}
	return report
}
