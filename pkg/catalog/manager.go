package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lrcview/pkg/cache"
	"lrcview/pkg/lrclib"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNoCatalogs is returned when a Manager has nothing to query.
var ErrNoCatalogs = errors.New("no catalogs available")

// Manager queries catalogs in priority order and returns the first success.
// It implements Catalog itself.
type Manager struct {
	catalogs []Catalog
	store    cache.Store
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewManager creates a Manager. store may be nil, or ttl zero, to disable
// caching.
func NewManager(catalogs []Catalog, store cache.Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		store = nil
	}
	m := &Manager{
		catalogs: catalogs,
		store:    store,
		ttl:      ttl,
		logger:   log.With().Str("component", "catalog-manager").Logger(),
	}
	if len(catalogs) == 0 {
		m.logger.Warn().Msg("No catalogs configured")
	} else {
		m.logger.Info().
			Strs("catalogs", m.Names()).
			Bool("cache", store != nil).
			Dur("cache_ttl", ttl).
			Msg("Catalog manager initialized")
	}
	return m
}

// Name describes the manager and its primary catalog.
func (m *Manager) Name() string {
	if len(m.catalogs) > 0 {
		return fmt.Sprintf("Manager[Primary: %s]", m.catalogs[0].Name())
	}
	return "Manager[No Catalogs]"
}

// Names lists the configured catalogs in priority order.
func (m *Manager) Names() []string {
	names := make([]string, len(m.catalogs))
	for i, c := range m.catalogs {
		names[i] = c.Name()
	}
	return names
}

// Search runs query against the catalogs with failover.
func (m *Manager) Search(ctx context.Context, query string) ([]lrclib.Track, error) {
	key := "search:" + strings.ToLower(strings.TrimSpace(query))
	return cached(ctx, m, key, func(c Catalog) ([]lrclib.Track, error) {
		return c.Search(ctx, query)
	})
}

// SearchByInfo searches by title and artist with failover.
func (m *Manager) SearchByInfo(ctx context.Context, title, artist string) ([]lrclib.Track, error) {
	key := "info:" + strings.ToLower(title+"|"+artist)
	return cached(ctx, m, key, func(c Catalog) ([]lrclib.Track, error) {
		return c.SearchByInfo(ctx, title, artist)
	})
}

// Get fetches a track by id with failover. A not-found answer from one catalog
// does not stop the others from being asked.
func (m *Manager) Get(ctx context.Context, id int64) (lrclib.Track, error) {
	return cached(ctx, m, "track:"+strconv.FormatInt(id, 10), func(c Catalog) (lrclib.Track, error) {
		return c.Get(ctx, id)
	})
}

// LyricsByInfo finds the best matching record for a song and returns its
// lyrics text, synced when available.
func (m *Manager) LyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error) {
	tracks, err := m.SearchByInfo(ctx, title, artist)
	if err != nil {
		return "", err
	}

	best, ok := lrclib.FindBest(tracks, title, artist, duration)
	if !ok {
		return "", fmt.Errorf("no lyrics found for '%s - %s'", title, artist)
	}
	if best.Lyrics() == "" {
		return "", fmt.Errorf("selected result has no lyrics for '%s - %s'", title, artist)
	}

	m.logger.Info().
		Int64("id", best.ID).
		Str("track", best.TrackName).
		Str("artist", best.ArtistName).
		Float64("duration", best.Duration).
		Float64("target_duration", duration).
		Bool("synced", best.HasSynced()).
		Msg("Selected lyrics")
	return best.Lyrics(), nil
}

func cached[T any](ctx context.Context, m *Manager, key string, call func(Catalog) (T, error)) (T, error) {
	var zero T
	if m.store != nil {
		if raw, ok, err := m.store.Get(ctx, key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		} else if ok {
			var v T
			if err := sonic.Unmarshal(raw, &v); err == nil {
				m.logger.Debug().Str("key", key).Msg("Cache hit")
				return v, nil
			}
			m.logger.Warn().Str("key", key).Msg("Dropping undecodable cache entry")
			if err := m.store.Delete(ctx, key); err != nil {
				m.logger.Warn().Err(err).Str("key", key).Msg("Cache delete failed")
			}
		}
	}

	v, err := failover(m, call)
	if err != nil {
		return zero, err
	}

	if m.store != nil {
		if raw, err := sonic.Marshal(v); err == nil {
			if err := m.store.Set(ctx, key, raw, m.ttl); err != nil {
				m.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
			}
		}
	}
	return v, nil
}

func failover[T any](m *Manager, call func(Catalog) (T, error)) (T, error) {
	var zero T
	if len(m.catalogs) == 0 {
		return zero, ErrNoCatalogs
	}

	var lastErr error
	for i, c := range m.catalogs {
		m.logger.Debug().
			Str("catalog", c.Name()).
			Int("attempt", i+1).
			Int("total_catalogs", len(m.catalogs)).
			Msg("Trying catalog")

		v, err := call(c)
		if err == nil {
			return v, nil
		}

		m.logger.Warn().Str("catalog", c.Name()).Err(err).Msg("Catalog failed")
		lastErr = err
	}

	if len(m.catalogs) == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("all catalogs failed, last error: %w", lastErr)
}
