/**
 * @description
 * Wire types for the Goldsky-hosted Polymarket subgraphs.
 * Numeric fields arrive as strings (GraphQL BigInt); the normalizer owns
 * parsing and scaling.
 */

package subgraph

// OrderFill is one orderFilledEvents row from the orderbook subgraph.
// Asset ID "0" is the cash (USDC) leg; any other value is an outcome token.
type OrderFill struct {
	ID                string `json:"id"`
	Timestamp         string `json:"timestamp"` // unix seconds as string
	TransactionHash   string `json:"transactionHash"`
	Maker             string `json:"maker"`
	Taker             string `json:"taker"`
	MakerAssetID      string `json:"makerAssetId"`
	TakerAssetID      string `json:"takerAssetId"`
	MakerAmountFilled string `json:"makerAmountFilled"` // 1e6 fixed-point
	TakerAmountFilled string `json:"takerAmountFilled"` // 1e6 fixed-point
}

// Split is a complete-set mint from the activity subgraph.
// ID format: {txhash}_{logindex}.
type Split struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Stakeholder string `json:"stakeholder"`
	Amount      string `json:"amount"` // 1e6 fixed-point
	Condition   string `json:"condition"`
}

// Merge is a complete-set burn from the activity subgraph.
type Merge struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Stakeholder string `json:"stakeholder"`
	Amount      string `json:"amount"` // 1e6 fixed-point
	Condition   string `json:"condition"`
}

// Redemption is a resolved-market payout claim from the activity subgraph.
type Redemption struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Redeemer  string `json:"redeemer"`
	Payout    string `json:"payout"` // 1e6 fixed-point
	Condition string `json:"condition"`
}

// Activity bundles one page of on-chain activity rows.
type Activity struct {
	Splits      []Split      `json:"splits"`
	Merges      []Merge      `json:"merges"`
	Redemptions []Redemption `json:"redemptions"`
}
