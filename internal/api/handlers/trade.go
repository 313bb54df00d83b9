/**
 * @description
 * HTTP Handlers for wallet trade history.
 * Resolves the caller-supplied identity, then delegates to the trade service
 * for the cached-or-refreshed, paginated history with analytics.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/apperr
 */

package handlers

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/harpoon-project/backend/internal/apperr"
	"github.com/harpoon-project/backend/internal/logger"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/harpoon-project/backend/internal/services"
)

// Pagination bounds for GET /trades
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// IdentityResolver maps user-supplied identities to wallet addresses.
type IdentityResolver interface {
	Resolve(ctx context.Context, input string) (string, error)
	FetchPublicProfile(ctx context.Context, address string) (*gamma.Profile, error)
}

// TradeHistoryProvider serves paginated trade history with analytics.
type TradeHistoryProvider interface {
	GetTradeHistory(ctx context.Context, wallet string, page, limit int) (*services.TradeHistoryPage, error)
	ClearWalletCache(ctx context.Context, wallet string) error
	ClearAllCaches(ctx context.Context) error
}

// TradeHandler handles trade history requests
type TradeHandler struct {
	resolver IdentityResolver
	trades   TradeHistoryProvider
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(resolver IdentityResolver, trades TradeHistoryProvider) *TradeHandler {
	return &TradeHandler{
		resolver: resolver,
		trades:   trades,
	}
}

// GetTradeHistory returns a wallet's trade history with analytics.
// GET /api/v1/trades/:identity
// The identity segment accepts a 0x address, a username, an @username, or a
// URL-encoded polymarket.com profile URL.
func (h *TradeHandler) GetTradeHistory(c *fiber.Ctx) error {
	identity := c.Params("identity")
	if decoded, err := url.PathUnescape(identity); err == nil {
		identity = decoded
	}
	if identity == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Wallet address or username is required",
		})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", DefaultPageLimit)
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	ctx := c.Context()

	wallet, err := h.resolver.Resolve(ctx, identity)
	if err != nil {
		var resErr *apperr.ResolutionError
		if errors.As(err, &resErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Could not resolve input to a wallet address",
			})
		}
		logger.Error("TradeHandler: Resolve failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve identity",
		})
	}

	history, err := h.trades.GetTradeHistory(ctx, wallet, page, limit)
	if err != nil {
		logger.Error("TradeHandler: Failed to get trade history: %v", err)
		var upErr *apperr.UpstreamFetchError
		if errors.As(err, &upErr) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Upstream data source unavailable",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch trade history",
		})
	}

	// Profile is decoration; a failed lookup never fails the request.
	if profile, err := h.resolver.FetchPublicProfile(ctx, wallet); err == nil {
		history.Profile = profile
	}

	return c.JSON(history)
}

// ClearCache drops a wallet's cached history.
// DELETE /api/v1/trades/:identity/cache
func (h *TradeHandler) ClearCache(c *fiber.Ctx) error {
	identity := c.Params("identity")
	if decoded, err := url.PathUnescape(identity); err == nil {
		identity = decoded
	}

	ctx := c.Context()

	wallet, err := h.resolver.Resolve(ctx, identity)
	if err != nil {
		var resErr *apperr.ResolutionError
		if errors.As(err, &resErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Could not resolve input to a wallet address",
			})
		}
		logger.Error("TradeHandler: Resolve failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve identity",
		})
	}

	if err := h.trades.ClearWalletCache(ctx, wallet); err != nil {
		logger.Error("TradeHandler: Failed to clear cache: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear cached history",
		})
	}

	return c.JSON(fiber.Map{"status": "cleared", "address": wallet})
}

// ClearAllCaches drops every wallet's cached history.
// DELETE /api/v1/cache
func (h *TradeHandler) ClearAllCaches(c *fiber.Ctx) error {
	if err := h.trades.ClearAllCaches(c.Context()); err != nil {
		logger.Error("TradeHandler: Failed to clear all caches: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear cached history",
		})
	}

	return c.JSON(fiber.Map{"status": "cleared"})
}
