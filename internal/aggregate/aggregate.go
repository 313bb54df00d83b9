/**
 * @description
 * Trade Aggregator: merges normalized trades from multiple sources into one
 * deduplicated, time-descending list. Deduplication key is the transaction
 * hash; the first occurrence wins when sources disagree on derived fields.
 *
 * @dependencies
 * - backend/internal/models
 */

package aggregate

import (
	"sort"

	"github.com/harpoon-project/backend/internal/models"
)

// Merge concatenates the sources in order, drops repeated transaction hashes
// (first-seen wins), and sorts the result most-recent-first.
func Merge(sources ...[]models.Trade) []models.Trade {
	var total int
	for _, src := range sources {
		total += len(src)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]models.Trade, 0, total)
	for _, src := range sources {
		for _, trade := range src {
			if _, dup := seen[trade.TxHash]; dup {
				continue
			}
			seen[trade.TxHash] = struct{}{}
			merged = append(merged, trade)
		}
	}

	SortByRecency(merged)
	return merged
}

// SortByRecency orders trades newest first. Stable so equal timestamps keep
// their source order.
func SortByRecency(trades []models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp.After(trades[j].Timestamp)
	})
}
