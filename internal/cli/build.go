package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"lrcview/internal/config"
	"lrcview/internal/lyrics"
	"lrcview/pkg/ai"
	"lrcview/pkg/cache"
	"lrcview/pkg/catalog"
	"lrcview/pkg/lrclib"
)

const cachePrefix = "lrcview:"

// newManager builds the catalog failover chain, one LRCLib client per base
// URL, over Redis when enabled and reachable, else an in-memory cache. The
// returned func closes the cache.
func newManager(ctx context.Context, cfg *config.Config) (*catalog.Manager, func(), error) {
	if len(cfg.Catalog.BaseURLs) == 0 {
		return nil, nil, fmt.Errorf("catalog.base_urls is empty")
	}

	catalogs := make([]catalog.Catalog, 0, len(cfg.Catalog.BaseURLs))
	for _, baseURL := range cfg.Catalog.BaseURLs {
		catalogs = append(catalogs, lrclib.NewClient(lrclib.Options{
			BaseURL:    baseURL,
			UserAgent:  cfg.Catalog.UserAgent,
			Timeout:    cfg.Catalog.Timeout,
			MaxRetries: cfg.Catalog.MaxRetries,
		}))
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		rs, err := cache.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cachePrefix)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis cache")
			store = rs
		}
	}

	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close cache")
		}
	}
	return catalog.NewManager(catalogs, store, cfg.Catalog.CacheTTL), closeStore, nil
}

// newProvider wires the lyrics provider used by follow mode. The AI client is
// optional; a failure to create it only disables title extraction.
func newProvider(ctx context.Context, cfg *config.Config, source lyrics.Source) (*lyrics.Provider, error) {
	if err := os.MkdirAll(cfg.App.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cfg.App.CacheDir, err)
	}
	log.Info().Str("cache_dir", filepath.Clean(cfg.App.CacheDir)).Msg("Lyrics cache directory")

	var aiClient ai.Client
	if cfg.AI.Enabled() {
		client, err := ai.New(ctx, cfg.AI.ModuleName, cfg.AI.Model, cfg.AI.APIKey, cfg.AI.BaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("AI client unavailable, splitting media titles instead")
		} else {
			log.Info().Str("model", client.Name()).Msg("Using AI song extraction")
			aiClient = client
		}
	}
	return lyrics.NewProvider(cfg.App.CacheDir, source, aiClient), nil
}
