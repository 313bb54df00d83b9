package analytics

import (
	"sort"
	"strings"

	"github.com/harpoon-project/backend/internal/models"
)

// topCategories caps the breakdown at the 10 most frequent tags.
const topCategories = 10

// CategoryStat is one tag's share of activity and its approximate P/L.
type CategoryStat struct {
	Tag string `json:"tag"`
	// Count is tag occurrences, not distinct trades.
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	// PnL sums each carrying trade's full signed amount into every tag it
	// bears: a multi-tag trade is counted once per tag, deliberately.
	PnL float64 `json:"pnl"`
}

// CategoryReport is the tag-frequency and per-category P/L breakdown.
type CategoryReport struct {
	// TotalTagMentions is the percentage denominator: a trade with 3 tags
	// contributes 3.
	TotalTagMentions int            `json:"total_tag_mentions"`
	Categories       []CategoryStat `json:"categories"`
}

// CategoryBreakdown splits each trade's comma-joined tags, counts
// occurrences, and attributes the trade's signed amount to every tag it
// carries. Top 10 by frequency; ties break in first-encountered order.
func CategoryBreakdown(trades []models.Trade) *CategoryReport {
	counts := make(map[string]int)
	pnl := make(map[string]float64)
	firstSeen := make(map[string]int)

	total := 0
	for i := range trades {
		trade := &trades[i]
		if trade.Tags == nil || *trade.Tags == "" {
			continue
		}
		for _, raw := range strings.Split(*trade.Tags, ",") {
			tag := strings.TrimSpace(raw)
			if tag == "" {
				continue
			}
			if _, ok := firstSeen[tag]; !ok {
				firstSeen[tag] = len(firstSeen)
			}
			counts[tag]++
			pnl[tag] += trade.SignedAmount()
			total++
		}
	}

	report := &CategoryReport{TotalTagMentions: total}
	if total == 0 {
		return report
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return firstSeen[tags[i]] < firstSeen[tags[j]]
	})

	if len(tags) > topCategories {
		tags = tags[:topCategories]
	}

	report.Categories = make([]CategoryStat, 0, len(tags))
	for _, tag := range tags {
		report.Categories = append(report.Categories, CategoryStat{
			Tag:     tag,
			Count:   counts[tag],
			Percent: round1(float64(counts[tag]) / float64(total) * 100),
			PnL:     round2(pnl[tag]),
		})
	}
	return report
}
