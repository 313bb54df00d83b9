/**
 * @description
 * Identity resolution and public profile lookups.
 * Turns any accepted identity form (0x address, @username, profile URL) into
 * a canonical lowercase wallet address via the Gamma profile search.
 * Uses Redis for caching resolved identities.
 *
 * @dependencies
 * - backend/internal/polymarket/gamma
 * - github.com/ethereum/go-ethereum/common: address validation
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/harpoon-project/backend/internal/apperr"
	"github.com/harpoon-project/backend/internal/logger"
	"github.com/harpoon-project/backend/internal/polymarket/gamma"
	"github.com/redis/go-redis/v9"
)

// Cache TTLs for identity data
const (
	ResolveCacheTTL = 5 * time.Minute // username -> wallet mapping changes rarely
	ProfileCacheTTL = 5 * time.Minute
)

// profileURLPattern extracts the username segment from polymarket.com profile
// URLs, with or without scheme, in both /@name and /profile/name forms.
var profileURLPattern = regexp.MustCompile(`polymarket\.com/(?:@|profile/)([A-Za-z0-9_.\-]+)`)

// ProfileService resolves user-supplied identities to wallet addresses and
// fetches public profile metadata.
type ProfileService struct {
	gammaClient *gamma.Client
	redis       *redis.Client
}

// NewProfileService creates a new ProfileService
func NewProfileService(gammaClient *gamma.Client, rdb *redis.Client) *ProfileService {
	return &ProfileService{
		gammaClient: gammaClient,
		redis:       rdb,
	}
}

// cacheKey generates a Redis cache key
func cacheKey(prefix, value string) string {
	return fmt.Sprintf("identity:%s:%s", prefix, strings.ToLower(value))
}

// getFromCache attempts to get data from Redis cache
func getFromCache[T any](ctx context.Context, rdb *redis.Client, key string) (*T, error) {
	if rdb == nil {
		return nil, nil
	}

	data, err := rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// setInCache stores data in Redis cache with TTL
func setInCache(ctx context.Context, rdb *redis.Client, key string, data interface{}, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, key, jsonData, ttl).Err()
}

// Resolve turns any accepted identity form into a canonical lowercase wallet
// address. Accepted forms: a 0x address, a polymarket.com profile URL, an
// @username, or a bare username. Returns apperr.ResolutionError when the
// input cannot be mapped to a wallet.
func (s *ProfileService) Resolve(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &apperr.ResolutionError{Input: input}
	}

	if common.IsHexAddress(input) {
		return strings.ToLower(input), nil
	}

	username := extractUsername(input)
	if username == "" {
		return "", &apperr.ResolutionError{Input: input}
	}
	// Profile URLs may carry a raw address in the path segment.
	if common.IsHexAddress(username) {
		return strings.ToLower(username), nil
	}

	key := cacheKey("resolve", username)
	cached, err := getFromCache[string](ctx, s.redis, key)
	if err != nil {
		logger.Error("ProfileService: Resolve cache error: %v", err)
	}
	if cached != nil && *cached != "" {
		return *cached, nil
	}

	profiles, err := s.gammaClient.SearchProfiles(ctx, username, 1)
	if err != nil {
		logger.Error("ProfileService: Profile search failed for %q: %v", username, err)
		return "", &apperr.ResolutionError{Input: input}
	}
	for _, p := range profiles {
		if p.ProxyWallet != "" {
			wallet := strings.ToLower(p.ProxyWallet)
			if err := setInCache(ctx, s.redis, key, wallet, ResolveCacheTTL); err != nil {
				logger.Error("ProfileService: Failed to cache resolution: %v", err)
			}
			return wallet, nil
		}
	}

	return "", &apperr.ResolutionError{Input: input}
}

// FetchPublicProfile returns the Gamma public profile for a wallet address,
// or nil when no profile exists. Lookup failures are not fatal to callers.
func (s *ProfileService) FetchPublicProfile(ctx context.Context, address string) (*gamma.Profile, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return nil, nil
	}

	key := cacheKey("profile", address)
	cached, err := getFromCache[gamma.Profile](ctx, s.redis, key)
	if err != nil {
		logger.Error("ProfileService: Profile cache error: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	profiles, err := s.gammaClient.SearchProfiles(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	profile := profiles[0]
	if err := setInCache(ctx, s.redis, key, profile, ProfileCacheTTL); err != nil {
		logger.Error("ProfileService: Failed to cache profile: %v", err)
	}
	return &profile, nil
}

// extractUsername pulls the username out of a profile URL or @handle. A bare
// token is treated as a username as-is.
func extractUsername(input string) string {
	if m := profileURLPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if strings.Contains(input, "polymarket.com") {
		// A profile URL we couldn't parse is not a username.
		return ""
	}
	input = strings.TrimPrefix(input, "@")
	if strings.ContainsAny(input, " /") {
		return ""
	}
	return input
}
