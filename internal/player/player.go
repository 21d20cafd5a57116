package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNothingPlaying is returned when playerctl reports no active player.
var ErrNothingPlaying = errors.New("no music playing")

// Playerctl reads playback state from MPRIS players through the playerctl CLI.
type Playerctl struct {
	bin    string
	player string // empty means whatever playerctl picks
}

// New returns a Playerctl bound to player, or to the default player when
// player is empty.
func New(player string) *Playerctl {
	return &Playerctl{bin: "playerctl", player: player}
}

func (p *Playerctl) run(ctx context.Context, args ...string) (string, error) {
	if p.player != "" {
		args = append([]string{"--player", p.player}, args...)
	}
	out, err := exec.CommandContext(ctx, p.bin, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s", ErrNothingPlaying, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentSong returns the media title as "Artist - Title".
func (p *Playerctl) CurrentSong(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "metadata", "--format", `{{artist}} - {{title}}`)
	if err != nil {
		return "", err
	}
	return parseSong(out)
}

// Position returns the playback position in milliseconds.
func (p *Playerctl) Position(ctx context.Context) (int64, error) {
	out, err := p.run(ctx, "position")
	if err != nil {
		return 0, err
	}
	return parsePosition(out)
}

// Duration returns the track length in seconds, or 0 when the player does not
// report one.
func (p *Playerctl) Duration(ctx context.Context) (float64, error) {
	out, err := p.run(ctx, "metadata", "mpris:length")
	if err != nil {
		return 0, err
	}
	return parseLength(out), nil
}

func parseSong(out string) (string, error) {
	song := strings.TrimSpace(out)
	// playerctl prints the separator even when both fields are empty
	if song == "" || song == "-" {
		return "", ErrNothingPlaying
	}
	return strings.TrimPrefix(song, "- "), nil
}

// parsePosition converts playerctl's "12.345678" seconds to milliseconds.
func parsePosition(out string) (int64, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid player position %q: %w", out, err)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("invalid player position %q", out)
	}
	return int64(seconds * 1000), nil
}

// parseLength converts mpris:length microseconds to seconds.
func parseLength(out string) float64 {
	micros, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil || micros <= 0 {
		return 0
	}
	return float64(micros) / 1e6
}
