package analytics

import (
	"testing"

	"github.com/harpoon-project/backend/internal/models"
)

func taggedTrade(side models.Side, amount float64, tags string) models.Trade {
	return models.Trade{Side: side, Amount: amount, Tags: &tags}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	report := CategoryBreakdown(nil)
	if report.TotalTagMentions != 0 {
		t.Errorf("expected 0 mentions, got %d", report.TotalTagMentions)
	}
	if len(report.Categories) != 0 {
		t.Errorf("expected no categories, got %d", len(report.Categories))
	}

	report = CategoryBreakdown([]models.Trade{{Side: models.SideBuy, Amount: 5}})
	if report.TotalTagMentions != 0 {
		t.Errorf("untagged trades must not count, got %d mentions", report.TotalTagMentions)
	}
}

func TestCategoryBreakdownDoubleCountsMultiTagTrades(t *testing.T) {
	trades := []models.Trade{
		taggedTrade(models.SideBuy, 10, "Politics,Sports"),
	}

	report := CategoryBreakdown(trades)
	if report.TotalTagMentions != 2 {
		t.Fatalf("expected 2 mentions, got %d", report.TotalTagMentions)
	}
	if len(report.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(report.Categories))
	}
	for _, cat := range report.Categories {
		if cat.Count != 1 {
			t.Errorf("%s: expected count 1, got %d", cat.Tag, cat.Count)
		}
		if cat.Percent != 50.0 {
			t.Errorf("%s: expected 50%%, got %v", cat.Tag, cat.Percent)
		}
		// The full signed amount lands in every tag the trade carries.
		if cat.PnL != -10.0 {
			t.Errorf("%s: expected pnl -10, got %v", cat.Tag, cat.PnL)
		}
	}
}

func TestCategoryBreakdownOrderingAndTies(t *testing.T) {
	trades := []models.Trade{
		taggedTrade(models.SideSell, 1, "Crypto"),
		taggedTrade(models.SideSell, 1, "Politics"),
		taggedTrade(models.SideSell, 1, "Crypto"),
		taggedTrade(models.SideSell, 1, "Sports"),
	}

	report := CategoryBreakdown(trades)
	if report.Categories[0].Tag != "Crypto" {
		t.Errorf("expected Crypto first, got %s", report.Categories[0].Tag)
	}
	// Politics and Sports tie on count; first-encountered order breaks it.
	if report.Categories[1].Tag != "Politics" || report.Categories[2].Tag != "Sports" {
		t.Errorf("tie-break order wrong: %s, %s", report.Categories[1].Tag, report.Categories[2].Tag)
	}
}

func TestCategoryBreakdownTrimsWhitespaceTags(t *testing.T) {
	trades := []models.Trade{
		taggedTrade(models.SideSell, 2, " Politics , ,Sports"),
	}

	report := CategoryBreakdown(trades)
	if report.TotalTagMentions != 2 {
		t.Fatalf("empty segments must be dropped, got %d mentions", report.TotalTagMentions)
	}
	for _, cat := range report.Categories {
		if cat.Tag != "Politics" && cat.Tag != "Sports" {
			t.Errorf("unexpected tag %q", cat.Tag)
		}
	}
}

func TestCategoryBreakdownCapsAtTen(t *testing.T) {
	tags := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	var trades []models.Trade
	for _, tag := range tags {
		trades = append(trades, taggedTrade(models.SideSell, 1, tag))
	}

	report := CategoryBreakdown(trades)
	if len(report.Categories) != 10 {
		t.Errorf("expected 10 categories, got %d", len(report.Categories))
	}
	if report.TotalTagMentions != len(tags) {
		t.Errorf("denominator must count all mentions, got %d", report.TotalTagMentions)
	}
}
