package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lrcview/internal/lyrics"
	"lrcview/internal/watch"
)

const (
	PreludeMarker = "♪ ... ♪"
	EndMarker     = "♪ End ♪"
	NoMusic       = "No music playing..."

	// the song counts as over this long after the last line starts
	endGrace = 5 * time.Second

	defaultTick          = 50 * time.Millisecond
	defaultCheckInterval = 5 * time.Second
)

// Player reports what is playing and where playback is.
type Player interface {
	CurrentSong(ctx context.Context) (string, error)
	Position(ctx context.Context) (int64, error)
	Duration(ctx context.Context) (float64, error)
}

// LyricsSource resolves a media title to raw LRC text.
type LyricsSource interface {
	GetLyrics(ctx context.Context, mediaTitle string, duration float64) (string, error)
}

// Broadcaster publishes the active line.
type Broadcaster interface {
	Broadcast(line string)
}

// Signaler is notified after every broadcast, e.g. to refresh a status bar.
type Signaler interface {
	Signal() error
}

type Options struct {
	Player        Player
	Lyrics        LyricsSource // not needed for RunFile
	Out           Broadcaster
	Signaler      Signaler // optional
	CheckInterval time.Duration
	LeadTime      time.Duration
}

// App follows the player and keeps the broadcast line in sync with playback.
type App struct {
	player        Player
	lyrics        LyricsSource
	out           Broadcaster
	signaler      Signaler
	checkInterval time.Duration
	leadTime      time.Duration
	tick          time.Duration
	logger        zerolog.Logger

	currentSong string
	idle        bool

	schedulerMutex  sync.Mutex
	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

func New(opts Options) *App {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = defaultCheckInterval
	}
	return &App{
		player:        opts.Player,
		lyrics:        opts.Lyrics,
		out:           opts.Out,
		signaler:      opts.Signaler,
		checkInterval: opts.CheckInterval,
		leadTime:      opts.LeadTime,
		tick:          defaultTick,
		logger:        log.With().Str("component", "follow").Logger(),
	}
}

// Run polls the player every check interval until ctx is done. Each new song
// replaces the running scheduler.
func (a *App) Run(ctx context.Context) error {
	defer a.stopScheduler()

	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	a.logger.Info().Dur("check_interval", a.checkInterval).Msg("Starting player check loop")
	for {
		a.updateSongInfo(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func (a *App) updateSongInfo(ctx context.Context) {
	song, err := a.player.CurrentSong(ctx)
	if err != nil {
		if !a.idle {
			a.logger.Info().Err(err).Msg("Player idle")
			a.stopScheduler()
			a.currentSong = ""
			a.idle = true
			a.broadcast(NoMusic)
		}
		return
	}
	a.idle = false
	if song == a.currentSong {
		return
	}

	a.logger.Info().Str("song", song).Msg("New song detected")
	a.currentSong = song
	a.stopScheduler()
	a.broadcast(fmt.Sprintf("... Searching for lyrics for %s ...", song))

	duration, err := a.player.Duration(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Player reported no duration")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	text, err := a.lyrics.GetLyrics(fetchCtx, song, duration)
	switch {
	case errors.Is(err, lyrics.ErrNotASong):
		a.logger.Info().Str("song", song).Msg("Media is not a song")
		a.broadcast(fmt.Sprintf("♪ %s ♪", song))
		return
	case err != nil:
		a.logger.Error().Err(err).Str("song", song).Msg("Failed to get lyrics")
		a.broadcast(fmt.Sprintf("No lyrics found for %s", song))
		return
	}

	a.startScheduler(ctx, lyrics.Parse(text), song)
}

// RunFile follows the player against a local .lrc file, reloading it whenever
// it changes on disk.
func (a *App) RunFile(ctx context.Context, path string) error {
	defer a.stopScheduler()

	load := func() error {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		a.startScheduler(ctx, lyrics.Parse(string(raw)), path)
		return nil
	}
	if err := load(); err != nil {
		return fmt.Errorf("failed to read lyrics file: %w", err)
	}

	err := watch.File(ctx, path, func() {
		a.logger.Info().Str("path", path).Msg("Lyrics file changed, reloading")
		if err := load(); err != nil {
			a.logger.Error().Err(err).Str("path", path).Msg("Failed to reload lyrics file")
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) startScheduler(ctx context.Context, tl *lyrics.Timeline, label string) {
	a.stopScheduler()

	if tl.TimedCount() == 0 {
		a.logger.Warn().Str("song", label).Int("lines", tl.Len()).Msg("Lyrics are not synced")
		a.broadcast(fmt.Sprintf("No synced lyrics for %s", label))
		return
	}

	schedCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.schedulerMutex.Lock()
	a.schedulerCancel = cancel
	a.schedulerDone = done
	a.schedulerMutex.Unlock()

	a.logger.Info().Str("song", label).Int("lines", tl.Len()).Int("timed", tl.TimedCount()).Msg("Starting lyric scheduler")
	go func() {
		defer close(done)
		a.schedule(schedCtx, tl)
	}()
}

// stopScheduler cancels the running scheduler and waits for it to exit.
func (a *App) stopScheduler() {
	a.schedulerMutex.Lock()
	cancel, done := a.schedulerCancel, a.schedulerDone
	a.schedulerCancel, a.schedulerDone = nil, nil
	a.schedulerMutex.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func lastStart(tl *lyrics.Timeline) int64 {
	var last int64
	for _, line := range tl.Lines() {
		if line.Timed && line.Start > last {
			last = line.Start
		}
	}
	return last
}

func (a *App) schedule(ctx context.Context, tl *lyrics.Timeline) {
	lines := tl.Lines()
	end := lastStart(tl) + endGrace.Milliseconds()
	lead := a.leadTime.Milliseconds()
	lastIndex := -2 // forces the first broadcast

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug().Msg("Lyric scheduler cancelled")
			return
		case <-ticker.C:
		}

		// re-read every tick so seeks and pauses are picked up
		pos, err := a.player.Position(ctx)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Failed to read player position")
			continue
		}

		index, ok := tl.LineAt(pos + lead)
		if !ok {
			index = -1
		}
		if index != lastIndex {
			if index >= 0 {
				a.logger.Debug().
					Int("index", index).
					Int64("player_ms", pos).
					Int64("line_ms", lines[index].Start).
					Str("lyric", lines[index].Text).
					Msg("Broadcasting lyric")
				a.broadcast(lines[index].Text)
			} else {
				a.broadcast(PreludeMarker)
			}
			lastIndex = index
		}

		if pos > end {
			a.logger.Info().Int64("player_ms", pos).Msg("Song finished")
			a.broadcast(EndMarker)
			return
		}
	}
}

func (a *App) broadcast(line string) {
	a.out.Broadcast(line)
	if a.signaler == nil {
		return
	}
	if err := a.signaler.Signal(); err != nil {
		a.logger.Debug().Err(err).Msg("Failed to signal status bar")
	}
}
