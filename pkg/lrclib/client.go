package lrclib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL   = "https://lrclib.net/api"
	DefaultUserAgent = "lrcview/1.0 (https://lrclib.net)"
)

// ErrNotFound is returned when the catalog has no record for a track id.
var ErrNotFound = errors.New("lrclib: track not found")

// Track LRCLib track record
type Track struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"` // seconds
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasSynced reports whether the record carries timestamped lyrics.
func (t Track) HasSynced() bool {
	return strings.TrimSpace(t.SyncedLyrics) != ""
}

// Options tune a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// Client LRCLib client
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	requestTimeout time.Duration
	maxRetries     int
	retryDelay     time.Duration
	logger         zerolog.Logger
}

// NewClient creates an LRCLib client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		userAgent:      opts.UserAgent,
		requestTimeout: opts.Timeout,
		maxRetries:     opts.MaxRetries,
		retryDelay:     500 * time.Millisecond,
		logger: log.With().
			Str("component", "lrclib").
			Str("base_url", opts.BaseURL).
			Logger(),
	}
}

// Name returns the catalog name used in logs.
func (c *Client) Name() string {
	return "LRCLib(" + c.baseURL + ")"
}

// Search runs a free-text query against /search?q=.
func (c *Client) Search(ctx context.Context, query string) ([]Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("lrclib: empty query")
	}

	params := url.Values{}
	params.Set("q", query)

	var tracks []Track
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &tracks); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	c.logger.Info().Str("query", query).Int("results", len(tracks)).Msg("Search finished")
	return tracks, nil
}

// SearchByInfo searches by track and artist name fields.
func (c *Client) SearchByInfo(ctx context.Context, title, artist string) ([]Track, error) {
	params := url.Values{}
	params.Set("track_name", title)
	if artist != "" {
		params.Set("artist_name", artist)
	}

	var tracks []Track
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &tracks); err != nil {
		return nil, fmt.Errorf("search '%s - %s': %w", title, artist, err)
	}
	c.logger.Info().
		Str("title", title).
		Str("artist", artist).
		Int("results", len(tracks)).
		Msg("Search by info finished")
	return tracks, nil
}

// Get fetches a single record by its catalog id.
func (c *Client) Get(ctx context.Context, id int64) (Track, error) {
	var track Track
	if err := c.getJSON(ctx, "/get/"+strconv.FormatInt(id, 10), &track); err != nil {
		return Track{}, fmt.Errorf("get track %d: %w", id, err)
	}
	return track, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return !errors.Is(err, ErrNotFound)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	requestID := uuid.NewString()
	logger := c.logger.With().Str("request_id", requestID).Str("path", path).Logger()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info().Int("attempt", attempt).Int("max_retries", c.maxRetries).Msg("Retrying request")
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		body, err := c.do(ctx, path, requestID)
		if err == nil {
			if err := sonic.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return err
		}
		logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Request failed")
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, path, requestID string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
