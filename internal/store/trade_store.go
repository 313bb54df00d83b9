/**
 * @description
 * Persistence layer for canonical trades and per-wallet cache watermarks.
 * Upserts are idempotent on tx_hash: re-ingesting a stored trade is a no-op,
 * never a duplicate row.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgconn: Postgres error classification
 * - backend/internal/models
 * - backend/internal/apperr
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/harpoon-project/backend/internal/apperr"
	"github.com/harpoon-project/backend/internal/models"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the Postgres error code for duplicate-key inserts.
const uniqueViolation = "23505"

// TradeStore owns all reads and writes of the trades and cache_watermarks
// tables.
type TradeStore struct {
	DB *gorm.DB
}

// NewTradeStore creates a new TradeStore
func NewTradeStore(db *gorm.DB) *TradeStore {
	return &TradeStore{DB: db}
}

// UpsertTrade inserts a trade; if the tx_hash is already stored the insert is
// skipped and the existing row is left untouched (first-seen wins).
func (s *TradeStore) UpsertTrade(ctx context.Context, trade *models.Trade) error {
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		}).
		Create(trade).Error
	if err != nil {
		return &apperr.PersistenceError{Op: "upsert trade", Err: err}
	}
	return nil
}

// GetWatermark returns the wallet's watermark, or nil when the wallet has
// never been fetched.
func (s *TradeStore) GetWatermark(ctx context.Context, wallet string) (*models.CacheWatermark, error) {
	var wm models.CacheWatermark
	err := s.DB.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		First(&wm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "get watermark", Err: err}
	}
	return &wm, nil
}

// UpsertWatermark creates the wallet's watermark or advances last_fetched on
// the existing row. Two concurrent refreshes may race on the create; the
// loser's duplicate insert is retried as an update.
func (s *TradeStore) UpsertWatermark(ctx context.Context, wallet string, fetchedAt time.Time, lastBlock *int64) error {
	updates := map[string]interface{}{
		"last_fetched": fetchedAt,
	}
	if lastBlock != nil {
		updates["last_block_number"] = *lastBlock
	}

	res := s.DB.WithContext(ctx).
		Model(&models.CacheWatermark{}).
		Where("wallet_address = ?", wallet).
		Updates(updates)
	if res.Error != nil {
		return &apperr.PersistenceError{Op: "update watermark", Err: res.Error}
	}
	if res.RowsAffected > 0 {
		return nil
	}

	wm := models.CacheWatermark{
		WalletAddress:   wallet,
		LastFetched:     fetchedAt,
		LastBlockNumber: lastBlock,
	}
	err := s.DB.WithContext(ctx).Create(&wm).Error
	if err != nil && isUniqueViolation(err) {
		err = s.DB.WithContext(ctx).
			Model(&models.CacheWatermark{}).
			Where("wallet_address = ?", wallet).
			Updates(updates).Error
	}
	if err != nil {
		return &apperr.PersistenceError{Op: "create watermark", Err: err}
	}
	return nil
}

// ListTrades returns one page of the wallet's trades, newest first.
func (s *TradeStore) ListTrades(ctx context.Context, wallet string, offset, limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.DB.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list trades", Err: err}
	}
	return trades, nil
}

// ListAllTrades returns the wallet's complete trade set, newest first.
// Analytics run over this, not over a page.
func (s *TradeStore) ListAllTrades(ctx context.Context, wallet string) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.DB.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Order("timestamp DESC").
		Find(&trades).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list all trades", Err: err}
	}
	return trades, nil
}

// ListStaleWatermarks returns wallets whose history was last fetched before
// the cutoff, oldest first. The background refresher works through these.
func (s *TradeStore) ListStaleWatermarks(ctx context.Context, cutoff time.Time, limit int) ([]models.CacheWatermark, error) {
	var watermarks []models.CacheWatermark
	err := s.DB.WithContext(ctx).
		Where("last_fetched < ?", cutoff).
		Order("last_fetched ASC").
		Limit(limit).
		Find(&watermarks).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list stale watermarks", Err: err}
	}
	return watermarks, nil
}

// CountTrades returns the wallet's stored trade count.
func (s *TradeStore) CountTrades(ctx context.Context, wallet string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Trade{}).
		Where("wallet_address = ?", wallet).
		Count(&count).Error
	if err != nil {
		return 0, &apperr.PersistenceError{Op: "count trades", Err: err}
	}
	return count, nil
}

// DeleteWallet clears one wallet's trades and watermark (explicit cache clear).
// The next history request re-fetches from scratch.
func (s *TradeStore) DeleteWallet(ctx context.Context, wallet string) error {
	if err := s.DB.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Delete(&models.Trade{}).Error; err != nil {
		return &apperr.PersistenceError{Op: "delete wallet trades", Err: err}
	}
	if err := s.DB.WithContext(ctx).
		Where("wallet_address = ?", wallet).
		Delete(&models.CacheWatermark{}).Error; err != nil {
		return &apperr.PersistenceError{Op: "delete wallet watermark", Err: err}
	}
	return nil
}

// DeleteAll clears every stored trade and watermark. Every wallet's next
// history request re-fetches from scratch.
func (s *TradeStore) DeleteAll(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Trade{}).Error; err != nil {
		return &apperr.PersistenceError{Op: "delete all trades", Err: err}
	}
	if err := s.DB.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.CacheWatermark{}).Error; err != nil {
		return &apperr.PersistenceError{Op: "delete all watermarks", Err: err}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
