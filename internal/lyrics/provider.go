package lyrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lrcview/pkg/ai"
	"lrcview/pkg/fileutil"
)

// ErrNotASong is returned when a media title does not name a song.
var ErrNotASong = errors.New("media is not a song")

// Source resolves a song to its lyrics text.
type Source interface {
	LyricsByInfo(ctx context.Context, title, artist string, duration float64) (string, error)
}

// Provider turns a player media title into raw lyrics, keeping a .lrc file
// cache on disk.
type Provider struct {
	cacheDir   string
	source     Source
	aiClient   ai.Client // optional
	aiRetries  int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewProvider creates a Provider. aiClient may be nil, in which case media
// titles are split on " - " as "Artist - Title".
func NewProvider(cacheDir string, source Source, aiClient ai.Client) *Provider {
	return &Provider{
		cacheDir:   cacheDir,
		source:     source,
		aiClient:   aiClient,
		aiRetries:  3,
		retryDelay: time.Second,
		logger:     log.With().Str("component", "lyrics-provider").Logger(),
	}
}

// GetLyrics returns the lyrics for mediaTitle, from the cache when present.
func (p *Provider) GetLyrics(ctx context.Context, mediaTitle string, duration float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	song, err := p.resolve(ctx, mediaTitle)
	if err != nil {
		return "", err
	}

	cachePath := filepath.Join(p.cacheDir, sanitizeFilename(song.Title+"-"+song.Artist)+".lrc")
	if cached, err := os.ReadFile(cachePath); err == nil {
		p.logger.Info().Str("path", cachePath).Msg("Cache hit")
		return string(cached), nil
	}
	p.logger.Info().Str("title", song.Title).Str("artist", song.Artist).Msg("Cache miss, querying catalog")

	text, err := p.source.LyricsByInfo(ctx, song.Title, song.Artist, duration)
	if err != nil {
		return "", fmt.Errorf("failed to get lyrics for '%s - %s': %w", song.Title, song.Artist, err)
	}

	if err := fileutil.WriteFileOverwrite(cachePath, []byte(text), 0644); err != nil {
		p.logger.Error().Err(err).Str("path", cachePath).Msg("Failed to write lyrics cache")
	}
	return text, nil
}

func (p *Provider) resolve(ctx context.Context, mediaTitle string) (ai.SongInfo, error) {
	if p.aiClient == nil {
		return splitMediaTitle(mediaTitle)
	}

	var (
		song ai.SongInfo
		err  error
	)
	for i := 0; i < p.aiRetries; i++ {
		song, err = ai.ExtractSong(ctx, p.aiClient, mediaTitle)
		if err == nil {
			break
		}
		p.logger.Warn().
			Err(err).
			Str("model", p.aiClient.Name()).
			Int("attempt", i+1).
			Int("max_attempts", p.aiRetries).
			Msg("Song extraction failed")
		if i == p.aiRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ai.SongInfo{}, ctx.Err()
		case <-time.After(p.retryDelay):
		}
	}
	if err != nil {
		p.logger.Warn().Err(err).Msg("Falling back to splitting the media title")
		return splitMediaTitle(mediaTitle)
	}
	if !song.IsSong {
		return ai.SongInfo{}, fmt.Errorf("%q: %w", mediaTitle, ErrNotASong)
	}
	return song, nil
}

// splitMediaTitle reads "Artist - Title" as reported by playerctl.
func splitMediaTitle(mediaTitle string) (ai.SongInfo, error) {
	mediaTitle = strings.TrimSpace(mediaTitle)
	if mediaTitle == "" {
		return ai.SongInfo{}, fmt.Errorf("empty media title: %w", ErrNotASong)
	}
	artist, title, found := strings.Cut(mediaTitle, " - ")
	if !found {
		return ai.SongInfo{Title: mediaTitle, IsSong: true}, nil
	}
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if title == "" {
		return ai.SongInfo{Title: artist, IsSong: true}, nil
	}
	return ai.SongInfo{Title: title, Artist: artist, IsSong: true}, nil
}

var unsafeFilename = regexp.MustCompile(`[\\/:*?"<>|]`)

func sanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "-")
}
