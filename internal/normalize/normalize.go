/**
 * @description
 * Event Normalizer: converts raw upstream events (CLOB order fills, on-chain
 * splits/merges/redemptions, Data API trade rows) into the canonical Trade
 * record with consistent buy/sell/redeem semantics and derived price.
 *
 * Pure functions, no I/O. A malformed event yields a Diagnostic instead of a
 * Trade; nothing is silently swallowed.
 *
 * @dependencies
 * - backend/internal/models
 * - backend/internal/polymarket/subgraph
 * - backend/internal/polymarket/data_api
 * - github.com/google/uuid: deterministic synthetic transaction keys
 */

package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harpoon-project/backend/internal/models"
	"github.com/harpoon-project/backend/internal/polymarket/data_api"
	"github.com/harpoon-project/backend/internal/polymarket/subgraph"
)

// On-chain amounts are 6-decimal fixed point (USDC and outcome tokens alike).
const fixedPointScale = 1e6

// cashAssetID marks the USDC leg of an order fill.
const cashAssetID = "0"

// Diagnostic explains why a raw event produced no Trade. The refresh
// pipeline accumulates these and logs them; a single bad event never aborts
// a batch.
type Diagnostic struct {
	Source  string
	EventID string
	Reason  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s event %s skipped: %s", d.Source, d.EventID, d.Reason)
}

func skip(source, eventID, reason string) *Diagnostic {
	return &Diagnostic{Source: source, EventID: eventID, Reason: reason}
}

// FromOrderFill normalizes one CLOB order fill. The subject wallet must be
// maker or taker; whichever leg the wallet gave determines the side: giving
// cash is a buy, giving tokens is a sell.
func FromOrderFill(wallet string, fill subgraph.OrderFill) (*models.Trade, *Diagnostic) {
	ts, err := parseUnixString(fill.Timestamp)
	if err != nil {
		return nil, skip("order_fill", fill.ID, "unparsable timestamp")
	}

	txHash := fill.TransactionHash
	if txHash == "" {
		txHash = fill.ID
	}
	if txHash == "" {
		return nil, skip("order_fill", fill.ID, "no transaction identity")
	}

	makerAmount, err := parseFixedPoint(fill.MakerAmountFilled)
	if err != nil {
		return nil, skip("order_fill", fill.ID, "unparsable makerAmountFilled")
	}
	takerAmount, err := parseFixedPoint(fill.TakerAmountFilled)
	if err != nil {
		return nil, skip("order_fill", fill.ID, "unparsable takerAmountFilled")
	}

	var side models.Side
	var amount, tokens float64
	var tokenID string

	switch {
	case strings.EqualFold(fill.Maker, wallet):
		if fill.MakerAssetID == cashAssetID {
			// Wallet gave USDC: buying outcome tokens.
			side = models.SideBuy
			tokenID = fill.TakerAssetID
			amount = makerAmount
			tokens = takerAmount
		} else {
			// Wallet gave tokens: selling.
			side = models.SideSell
			tokenID = fill.MakerAssetID
			tokens = makerAmount
			amount = takerAmount
		}
	case strings.EqualFold(fill.Taker, wallet):
		if fill.TakerAssetID == cashAssetID {
			side = models.SideBuy
			tokenID = fill.MakerAssetID
			amount = takerAmount
			tokens = makerAmount
		} else {
			side = models.SideSell
			tokenID = fill.TakerAssetID
			tokens = takerAmount
			amount = makerAmount
		}
	default:
		return nil, skip("order_fill", fill.ID, "wallet is neither maker nor taker")
	}

	trade := &models.Trade{
		TxHash:        txHash,
		WalletAddress: strings.ToLower(wallet),
		Timestamp:     ts,
		Side:          side,
		Amount:        Round2(amount),
	}
	if tokens > 0 {
		price := Round4(amount / tokens)
		trade.Price = &price
	}
	if tokenID != cashAssetID && tokenID != "" {
		trade.TokenID = &tokenID
	}
	return trade, nil
}

// FromSplit normalizes a complete-set mint. Economically a buy of the
// underlying; no unit price exists.
func FromSplit(wallet string, split subgraph.Split) (*models.Trade, *Diagnostic) {
	return activityTrade(wallet, "split", models.SideBuy, split.ID, split.Timestamp, split.Amount, split.Condition)
}

// FromMerge normalizes a complete-set burn. Economically a sell; no unit price.
func FromMerge(wallet string, merge subgraph.Merge) (*models.Trade, *Diagnostic) {
	return activityTrade(wallet, "merge", models.SideSell, merge.ID, merge.Timestamp, merge.Amount, merge.Condition)
}

// FromRedemption normalizes a resolved-market payout claim.
func FromRedemption(wallet string, redemption subgraph.Redemption) (*models.Trade, *Diagnostic) {
	return activityTrade(wallet, "redemption", models.SideRedeem, redemption.ID, redemption.Timestamp, redemption.Payout, redemption.Condition)
}

func activityTrade(wallet, source string, side models.Side, id, rawTS, rawAmount, condition string) (*models.Trade, *Diagnostic) {
	ts, err := parseUnixString(rawTS)
	if err != nil {
		return nil, skip(source, id, "unparsable timestamp")
	}

	// Activity IDs are {txhash}_{logindex}.
	txHash := strings.SplitN(id, "_", 2)[0]
	if txHash == "" {
		return nil, skip(source, id, "no transaction identity")
	}

	amount, err := parseFixedPoint(rawAmount)
	if err != nil {
		return nil, skip(source, id, "unparsable amount")
	}

	trade := &models.Trade{
		TxHash:        txHash,
		WalletAddress: strings.ToLower(wallet),
		Timestamp:     ts,
		Side:          side,
		Amount:        Round2(amount),
	}
	if condition != "" {
		trade.MarketID = &condition
	}
	return trade, nil
}

// FromDataAPITrade normalizes one Data API trade row. Size and price arrive
// already decimal; the notional is size*price. Unrecognized sides collapse
// to buy.
func FromDataAPITrade(wallet string, t data_api.Trade) (*models.Trade, *Diagnostic) {
	if t.Timestamp <= 0 {
		return nil, skip("data_api_trade", t.ID, "unparsable timestamp")
	}

	side := models.SideBuy
	if strings.EqualFold(t.Side, string(models.SideSell)) {
		side = models.SideSell
	}

	txHash := t.TxHash
	if txHash == "" {
		txHash = SyntheticTxHash(wallet, t.ID, t.ConditionID, t.TokenID, strconv.FormatInt(t.Timestamp, 10), t.Side)
	}

	trade := &models.Trade{
		TxHash:        txHash,
		WalletAddress: strings.ToLower(wallet),
		Timestamp:     t.Time(),
		Side:          side,
		Amount:        Round2(t.Size * t.Price),
	}
	if t.Price > 0 {
		price := Round4(t.Price)
		trade.Price = &price
	}
	if t.ConditionID != "" {
		conditionID := t.ConditionID
		trade.MarketID = &conditionID
	}
	if t.MarketQuestion != "" {
		title := t.MarketQuestion
		trade.MarketTitle = &title
	}
	if t.MarketSlug != "" {
		slug := t.MarketSlug
		trade.MarketSlug = &slug
	}
	if t.Outcome != "" {
		outcome := t.Outcome
		trade.Outcome = &outcome
	}
	if t.TokenID != "" {
		tokenID := t.TokenID
		trade.TokenID = &tokenID
	}
	return trade, nil
}

// SyntheticHashPrefix marks stand-in keys that are not real transaction
// hashes and must not be linked to a block explorer.
const SyntheticHashPrefix = "synthetic-"

// SyntheticTxHash derives a deterministic stand-in key for events that lack a
// native transaction hash. The same inputs always produce the same key, so
// idempotent upserts keep working.
func SyntheticTxHash(parts ...string) string {
	return SyntheticHashPrefix + uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "|"))).String()
}

// Round2 rounds to 2 decimal places (USDC amounts).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds to 4 decimal places (unit prices).
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func parseUnixString(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

func parseFixedPoint(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v / fixedPointScale, nil
}
