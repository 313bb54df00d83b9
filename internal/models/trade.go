/**
 * @description
 * Canonical trade and cache watermark database models.
 * Maps to the 'trades' and 'cache_watermarks' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import "time"

// Side classifies a trade's direction.
type Side string

const (
	SideBuy    Side = "buy"
	SideSell   Side = "sell"
	SideRedeem Side = "redeem"
)

// Trade is the canonical trade record every upstream event shape normalizes
// into. TxHash is the natural key: re-ingesting a stored hash is a no-op.
type Trade struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	TxHash        string    `gorm:"column:tx_hash;size:66;uniqueIndex;not null" json:"tx_hash"`
	WalletAddress string    `gorm:"column:wallet_address;size:42;index;not null" json:"wallet_address"`
	Timestamp     time.Time `gorm:"column:timestamp;index;not null" json:"timestamp"`

	MarketID    *string `gorm:"column:market_id;size:255" json:"market_id"`
	MarketTitle *string `gorm:"column:market_title" json:"market_title"`
	MarketSlug  *string `gorm:"column:market_slug;size:255" json:"market_slug"`
	Outcome     *string `gorm:"column:outcome;size:255" json:"outcome"`
	TokenID     *string `gorm:"column:token_id;size:255" json:"token_id"`

	Side   Side     `gorm:"column:side;size:10" json:"side"`
	Amount float64  `gorm:"column:amount" json:"amount"`
	Price  *float64 `gorm:"column:price" json:"price"`

	BlockNumber *int64  `gorm:"column:block_number" json:"block_number"`
	Tags        *string `gorm:"column:tags" json:"tags"` // comma-joined category labels

	// Resolution state; OutcomeWon stays nil (unknown) unless resolution is determinate.
	Closed     bool       `gorm:"column:closed;default:false" json:"closed"`
	CloseTime  *time.Time `gorm:"column:close_time" json:"close_time"`
	OutcomeWon *bool      `gorm:"column:outcome_won" json:"outcome_won"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

// TableName overrides the table name used by Trade to `trades`
func (Trade) TableName() string {
	return "trades"
}

// SignedAmount is the trade's cash flow from the wallet's perspective:
// buys spend, sells and redemptions collect.
func (t *Trade) SignedAmount() float64 {
	if t.Side == SideBuy {
		return -t.Amount
	}
	return t.Amount
}

// CacheWatermark records when a wallet's history was last successfully
// fetched. Created on first fetch, updated on every refresh, never deleted
// except by an explicit cache clear.
type CacheWatermark struct {
	WalletAddress   string    `gorm:"column:wallet_address;size:42;primaryKey" json:"wallet_address"`
	LastFetched     time.Time `gorm:"column:last_fetched;not null" json:"last_fetched"`
	LastBlockNumber *int64    `gorm:"column:last_block_number" json:"last_block_number"`
}

// TableName overrides the table name used by CacheWatermark to `cache_watermarks`
func (CacheWatermark) TableName() string {
	return "cache_watermarks"
}
